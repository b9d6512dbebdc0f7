// Package progression computes derived display values from a profile
// snapshot: levels, streaks, per-day XP and per-subject breakdowns. All
// functions are pure; re-running them with identical input yields
// identical output.
package progression

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/qubicboard/internal/models"
	"github.com/dmitrijs2005/qubicboard/internal/timex"
)

// XPPerLevel is the flat level curve: every level spans exactly this much XP.
const XPPerLevel = 1000

// DefaultSubject labels attempts that carry no subject of their own.
const DefaultSubject = "General behavior"

// LevelFromXP returns the level for a cumulative XP total. Level 1 spans
// [0, 1000); boundaries are exact multiples of 1000.
func LevelFromXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

// Progress describes where within the current level a given XP total sits.
type Progress struct {
	Level    int     `json:"level"`
	InLevel  int     `json:"xp_into_level"`
	Needed   int     `json:"xp_needed_for_level"`
	Fraction float64 `json:"fraction"`
}

// XPProgress returns the level, XP into the level, XP needed for the level
// (always 1000) and the completion fraction clamped to [0, 1].
func XPProgress(xp int) Progress {
	if xp < 0 {
		xp = 0
	}
	level := LevelFromXP(xp)
	base := (level - 1) * XPPerLevel

	inLevel := xp - base
	if inLevel < 0 {
		inLevel = 0
	}

	fraction := float64(inLevel) / float64(XPPerLevel)
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	return Progress{Level: level, InLevel: inLevel, Needed: XPPerLevel, Fraction: fraction}
}

// ComputeStreak counts consecutive active calendar days ending at today
// (inclusive). It walks backward one day at a time and stops at the first
// gap; if today itself is absent the streak is 0. Unparseable entries are
// ignored.
func ComputeStreak(daysActive []string, today time.Time) int {
	if len(daysActive) == 0 {
		return 0
	}

	active := make(map[string]struct{}, len(daysActive))
	for _, d := range daysActive {
		active[d] = struct{}{}
	}

	streak := 0
	cursor := today
	for {
		if _, ok := active[timex.Day(cursor)]; !ok {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}

// ComputeBestStreak returns the longest run of consecutive calendar days
// anywhere in the set: 0 for empty input, 1 for a singleton.
func ComputeBestStreak(daysActive []string) int {
	dates := parseSortedDays(daysActive)
	if len(dates) == 0 {
		return 0
	}

	best := 1
	current := 1
	for i := 1; i < len(dates); i++ {
		if dates[i].Equal(dates[i-1].AddDate(0, 0, 1)) {
			current++
			if current > best {
				best = current
			}
		} else if dates[i].Equal(dates[i-1]) {
			continue
		} else {
			current = 1
		}
	}
	return best
}

// XPByDay aggregates XP event amounts per calendar day. The day is the
// substring before a literal 'T' in the event timestamp, or its first 10
// characters.
func XPByDay(events []models.XPEvent) map[string]int {
	byDay := make(map[string]int)
	for _, e := range events {
		day := dayOfTimestamp(e.TS)
		if day == "" {
			continue
		}
		byDay[day] += e.Amount
	}
	return byDay
}

// SubjectStats aggregates XP and attempt counts for one subject.
type SubjectStats struct {
	XP    int `json:"xp"`
	Tests int `json:"tests"`
}

// SubjectBreakdown groups test history by subject, labelling attempts with
// no subject as DefaultSubject.
func SubjectBreakdown(history []models.TestAttempt) map[string]SubjectStats {
	breakdown := make(map[string]SubjectStats)
	for _, a := range history {
		subject := a.Subject
		if subject == "" {
			subject = DefaultSubject
		}
		stats := breakdown[subject]
		stats.XP += a.XPGained
		stats.Tests++
		breakdown[subject] = stats
	}
	return breakdown
}

func dayOfTimestamp(ts string) string {
	if idx := strings.IndexByte(ts, 'T'); idx >= 0 {
		return ts[:idx]
	}
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}

func parseSortedDays(daysActive []string) []time.Time {
	dates := make([]time.Time, 0, len(daysActive))
	for _, d := range daysActive {
		t, err := timex.ParseDay(d)
		if err != nil {
			continue
		}
		dates = append(dates, t)
	}
	// days_active is kept sorted by the mutation layer; older files may not be
	for i := 1; i < len(dates); i++ {
		for j := i; j > 0 && dates[j].Before(dates[j-1]); j-- {
			dates[j], dates[j-1] = dates[j-1], dates[j]
		}
	}
	return dates
}
