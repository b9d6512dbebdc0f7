package qubic

import (
	"math"
	"time"

	"github.com/dmitrijs2005/qubicboard/internal/models"
	"github.com/dmitrijs2005/qubicboard/internal/timex"
)

// DefaultMaxHistoryPoints caps per-user tick and price histories.
const DefaultMaxHistoryPoints = 30

// PickTick extracts a tick (chain height) value, preferring the dedicated
// tick payload over the status payload.
func PickTick(status, tickInfo map[string]any) (int64, bool) {
	candidates := []any{}
	if tickInfo != nil {
		candidates = append(candidates, firstPresent(tickInfo, "tick", "currentTick", "latestTick"))
	}
	if status != nil {
		candidates = append(candidates, firstPresent(status, "tick", "currentTick", "latestTick"))
	}

	for _, item := range candidates {
		if v, ok := CoerceNumber(item); ok {
			return int64(v), true
		}
	}
	return 0, false
}

// PickPrice extracts a USD price from a status payload. Unlike PickTick, a
// present-but-zero price wins.
func PickPrice(status map[string]any) (float64, bool) {
	if status == nil {
		return 0, false
	}
	for _, key := range []string{"price", "priceUsd", "priceUSD"} {
		if raw, ok := status[key]; ok {
			if v, ok := CoerceNumber(raw); ok {
				return v, true
			}
		}
	}
	return 0, false
}

// UpdateMarketHistory appends the current tick and price to the user's
// history logs. Values equal to their immediate predecessor are skipped and
// each log is capped at maxPoints. Prices are rounded to six decimals.
func UpdateMarketHistory(state *models.UserState, status, tickInfo map[string]any, now time.Time, maxPoints int) {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxHistoryPoints
	}
	ts := timex.Timestamp(now) + "Z"

	if tick, ok := PickTick(status, tickInfo); ok {
		state.QubicTickHistory = appendPoint(state.QubicTickHistory, ts, float64(tick), maxPoints)
	}

	if price, ok := PickPrice(status); ok {
		rounded := math.RoundToEven(price*1e6) / 1e6
		state.QubicPriceHistory = appendPoint(state.QubicPriceHistory, ts, rounded, maxPoints)
	}
}

func appendPoint(points []models.HistoryPoint, ts string, value float64, maxPoints int) []models.HistoryPoint {
	if len(points) > 0 && points[len(points)-1].Value == value {
		return points
	}
	points = append(points, models.HistoryPoint{TS: ts, Value: value})
	if len(points) > maxPoints {
		points = points[len(points)-maxPoints:]
	}
	return points
}
