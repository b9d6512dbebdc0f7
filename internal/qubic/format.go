package qubic

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CoerceNumber converts loosely typed JSON values to float64. The second
// return value is false when the value is not numeric.
func CoerceNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// FormatValue renders RPC payload values in a compact, user-friendly way:
// "n/a" for missing values, thousands separators for integers, up to six
// decimals for floats.
func FormatValue(value any) string {
	if value == nil || value == "" {
		return "n/a"
	}
	switch v := value.(type) {
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return groupThousands(strconv.FormatInt(int64(v), 10))
		}
		s := strconv.FormatFloat(v, 'f', 6, 64)
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
		return groupFloatThousands(s)
	case int:
		return groupThousands(strconv.Itoa(v))
	case int64:
		return groupThousands(strconv.FormatInt(v, 10))
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return FormatValue(f)
		}
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// groupThousands inserts commas into a decimal integer string.
func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// groupFloatThousands groups only the integer part of a float string.
func groupFloatThousands(s string) string {
	intPart, frac, found := strings.Cut(s, ".")
	grouped := groupThousands(intPart)
	if !found {
		return grouped
	}
	return grouped + "." + frac
}

// Metric is one labeled display value extracted from an RPC payload.
type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// truthy mirrors the falsy handling of the fallback chains: nil, empty
// strings, false and numeric zero all fall through to the next candidate.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	default:
		return true
	}
}

// firstPresent returns the first truthy value among the candidate keys.
func firstPresent(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && truthy(v) {
			return v
		}
	}
	return nil
}

// StatusSummary picks common status fields from a Qubic RPC payload,
// skipping absent ones.
func StatusSummary(status map[string]any) []Metric {
	if status == nil {
		return nil
	}
	fields := []struct {
		label string
		value any
	}{
		{"Network", firstPresent(status, "network", "networkName", "chain")},
		{"Epoch", firstPresent(status, "epoch", "currentEpoch")},
		{"Tick", firstPresent(status, "tick", "currentTick", "latestTick")},
		{"Active addresses", firstPresent(status, "activeAddresses")},
		{"Circulating supply", firstPresent(status, "circulatingSupply", "supply")},
		{"Price (USD)", firstPresent(status, "price", "priceUsd")},
		{"Market cap (USD)", firstPresent(status, "marketCap", "marketCapUsd")},
		{"Timestamp", firstPresent(status, "timestamp", "time", "updatedAt")},
	}

	var summary []Metric
	for _, f := range fields {
		if f.value == nil || f.value == "" {
			continue
		}
		summary = append(summary, Metric{Label: f.label, Value: FormatValue(f.value)})
	}
	return summary
}

// BalanceSummary picks common balance fields from a Qubic RPC payload.
func BalanceSummary(balance map[string]any) []Metric {
	if balance == nil {
		return nil
	}
	fields := []struct {
		label string
		value any
	}{
		{"Balance", balance["balance"]},
		{"Incoming amount", balance["incomingAmount"]},
		{"Outgoing amount", balance["outgoingAmount"]},
		{"Incoming transfers", balance["numberOfIncomingTransfers"]},
		{"Outgoing transfers", balance["numberOfOutgoingTransfers"]},
	}

	var summary []Metric
	for _, f := range fields {
		if f.value == nil || f.value == "" {
			continue
		}
		summary = append(summary, Metric{Label: f.label, Value: FormatValue(f.value)})
	}
	return summary
}
