package progression

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/qubicboard/internal/models"
	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestLevelFromXP(t *testing.T) {
	tests := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{999, 1},
		{1000, 2},
		{1001, 2},
		{4999, 5},
		{5000, 6},
		{-10, 1},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, LevelFromXP(tc.xp), "xp=%d", tc.xp)
	}
}

func TestXPProgress(t *testing.T) {
	p := XPProgress(2300)
	assert.Equal(t, 3, p.Level)
	assert.Equal(t, 300, p.InLevel)
	assert.Equal(t, 1000, p.Needed)
	assert.InDelta(t, 0.3, p.Fraction, 1e-9)

	p = XPProgress(0)
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, 0, p.InLevel)
	assert.Zero(t, p.Fraction)

	p = XPProgress(-5)
	assert.Equal(t, 1, p.Level)
	assert.Zero(t, p.InLevel)
}

func TestComputeStreak(t *testing.T) {
	today := day("2025-03-10")

	tests := []struct {
		name string
		days []string
		want int
	}{
		{name: "empty", days: nil, want: 0},
		{name: "today absent", days: []string{"2025-03-08", "2025-03-09"}, want: 0},
		{name: "today only", days: []string{"2025-03-10"}, want: 1},
		{name: "three consecutive", days: []string{"2025-03-08", "2025-03-09", "2025-03-10"}, want: 3},
		{name: "gap stops walk", days: []string{"2025-03-06", "2025-03-08", "2025-03-09", "2025-03-10"}, want: 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeStreak(tc.days, today))
		})
	}
}

func TestComputeStreak_Deterministic(t *testing.T) {
	days := []string{"2025-03-09", "2025-03-10"}
	today := day("2025-03-10")

	first := ComputeStreak(days, today)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ComputeStreak(days, today))
	}
}

func TestComputeBestStreak(t *testing.T) {
	tests := []struct {
		name string
		days []string
		want int
	}{
		{name: "empty", days: nil, want: 0},
		{name: "singleton", days: []string{"2025-03-01"}, want: 1},
		{name: "two runs", days: []string{"2025-03-01", "2025-03-02", "2025-03-05", "2025-03-06", "2025-03-07"}, want: 3},
		{name: "unsorted input", days: []string{"2025-03-02", "2025-03-01"}, want: 2},
		{name: "month boundary", days: []string{"2025-02-28", "2025-03-01"}, want: 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeBestStreak(tc.days))
		})
	}
}

func TestXPByDay(t *testing.T) {
	events := []models.XPEvent{
		{TS: "2025-03-01T10:00:00", Amount: 100},
		{TS: "2025-03-01T18:30:00", Amount: 40},
		{TS: "2025-03-02T09:00:00", Amount: 10},
		{TS: "2025-03-03", Amount: 5}, // date-only timestamp
	}

	byDay := XPByDay(events)
	assert.Equal(t, 140, byDay["2025-03-01"])
	assert.Equal(t, 10, byDay["2025-03-02"])
	assert.Equal(t, 5, byDay["2025-03-03"])
}

func TestSubjectBreakdown(t *testing.T) {
	history := []models.TestAttempt{
		{Subject: "Discipline", XPGained: 140},
		{Subject: "Discipline", XPGained: 60},
		{Subject: "", XPGained: 200},
	}

	breakdown := SubjectBreakdown(history)
	assert.Equal(t, SubjectStats{XP: 200, Tests: 2}, breakdown["Discipline"])
	assert.Equal(t, SubjectStats{XP: 200, Tests: 1}, breakdown[DefaultSubject])
}
