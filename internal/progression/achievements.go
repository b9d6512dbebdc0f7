package progression

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/qubicboard/internal/models"
	"github.com/dmitrijs2005/qubicboard/internal/timex"
)

// Achievement is a named predicate over derived state with a human-readable
// progress string.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
	Progress    string `json:"progress"`
}

// Achievements evaluates the fixed catalog against a profile snapshot.
// The order is stable (declaration order), not sorted by unlock status.
func Achievements(state *models.UserState, today time.Time) []Achievement {
	xp := state.XP
	tests := state.TestsTaken
	days := state.DaysActive

	streakBest := ComputeBestStreak(days)
	xpByDay := XPByDay(state.XPEvents)

	out := make([]Achievement, 0, 8)
	add := func(id, name, desc string, unlocked bool, progress string) {
		out = append(out, Achievement{ID: id, Name: name, Description: desc, Unlocked: unlocked, Progress: progress})
	}

	add("xp_1000", "First 1,000 Behavior XP",
		"Reach 1,000 XP from simulated behavior runs.",
		xp >= 1000, fmt.Sprintf("%d/1000 XP", xp))
	add("xp_5000", "Serious Behavior Grinder",
		"Reach 5,000 XP in this session.",
		xp >= 5000, fmt.Sprintf("%d/5000 XP", xp))

	add("tests_3", "Tried 3 Scenarios",
		"Record results for at least 3 scenarios.",
		tests >= 3, fmt.Sprintf("%d/3 scenarios", tests))
	add("tests_10", "Scenario Explorer",
		"Record results for at least 10 scenarios.",
		tests >= 10, fmt.Sprintf("%d/10 scenarios", tests))

	add("streak_3", "3-Day Discipline Streak",
		"Be active on 3 consecutive days.",
		streakBest >= 3, fmt.Sprintf("Best streak: %d/3 days", streakBest))
	add("streak_7", "7-Day Commitment",
		"Be active on 7 consecutive days.",
		streakBest >= 7, fmt.Sprintf("Best streak: %d/7 days", streakBest))

	weekendUnlocked := hasWeekendPair(days)
	weekendProgress := "No Sat+Sun pair yet"
	if weekendUnlocked {
		weekendProgress = "Seen Sat+Sun active day pair"
	}
	add("weekend_warrior", "Weekend Warrior",
		"Be active on both Saturday and Sunday (streak marker).",
		weekendUnlocked, weekendProgress)

	activeLast7 := activeDaysInLastWeek(days, xpByDay, today)
	add("momentum_builder", "Momentum Builder",
		"Gain XP on 5 out of the last 7 days.",
		activeLast7 >= 5, fmt.Sprintf("%d/5 active days in last 7", activeLast7))

	return out
}

// hasWeekendPair reports whether any active Saturday is immediately
// followed by an active Sunday.
func hasWeekendPair(daysActive []string) bool {
	active := make(map[string]struct{}, len(daysActive))
	for _, d := range daysActive {
		active[d] = struct{}{}
	}

	for _, d := range daysActive {
		t, err := timex.ParseDay(d)
		if err != nil {
			continue
		}
		if t.Weekday() != time.Saturday {
			continue
		}
		if _, ok := active[timex.Day(t.AddDate(0, 0, 1))]; ok {
			return true
		}
	}
	return false
}

// activeDaysInLastWeek counts how many of the last 7 calendar days
// (inclusive of today) have either an active-day entry or nonzero XP.
func activeDaysInLastWeek(daysActive []string, xpByDay map[string]int, today time.Time) int {
	active := make(map[string]struct{}, len(daysActive))
	for _, d := range daysActive {
		active[d] = struct{}{}
	}

	count := 0
	for offset := 0; offset < 7; offset++ {
		day := timex.Day(today.AddDate(0, 0, -offset))
		if xpByDay[day] > 0 {
			count++
			continue
		}
		if _, ok := active[day]; ok {
			count++
		}
	}
	return count
}
