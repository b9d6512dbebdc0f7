// Package tracker is the mutation layer for user profiles: the only
// sanctioned entry points that change a UserState. Every function takes
// the state and an explicit clock value; wall-clock access stays with the
// caller so the mutations themselves are deterministic.
package tracker

import (
	"math"
	"sort"
	"time"

	"github.com/dmitrijs2005/qubicboard/internal/models"
	"github.com/dmitrijs2005/qubicboard/internal/timex"
)

// MarkActivityDay records now's calendar day in days_active. The insert is
// idempotent and keeps the list sorted ascending.
func MarkActivityDay(s *models.UserState, now time.Time) {
	day := timex.Day(now)
	if s.HasDayActive(day) {
		return
	}
	s.DaysActive = append(s.DaysActive, day)
	sort.Strings(s.DaysActive)
}

// GrantXP adds XP, derives coins (1 per 10 XP) and logs an XP event with a
// second-precision UTC timestamp. Zero or negative amounts are a no-op.
func GrantXP(s *models.UserState, now time.Time, amount int, source, description string) {
	if amount <= 0 {
		return
	}

	s.XP += amount
	s.Coins += amount / 10

	s.XPEvents = append(s.XPEvents, models.XPEvent{
		TS:          timex.Timestamp(now),
		Source:      source,
		Amount:      amount,
		Description: description,
	})
	MarkActivityDay(s, now)
}

// RecordTestAttempt stores a test/scenario attempt and awards XP scaled
// linearly by the score percentage, up to 200 at 100%. Total is clamped to
// at least 1 and correct to [0, total]; time_sec is stored as given.
func RecordTestAttempt(s *models.UserState, now time.Time, testID, name, subject string, correct, total, timeSec int) models.TestAttempt {
	if total < 1 {
		total = 1
	}
	if correct < 0 {
		correct = 0
	}
	if correct > total {
		correct = total
	}

	// ties round to even, matching the scores in previously stored files
	percent := math.RoundToEven(float64(correct)/float64(total)*100.0*10) / 10
	xpGain := int(percent * 2)

	GrantXP(s, now, xpGain, models.XPSourceTest, name+" ("+subject+")")

	attempt := models.TestAttempt{
		Timestamp: timex.Timestamp(now),
		TestID:    testID,
		Name:      name,
		Subject:   subject,
		Correct:   correct,
		Total:     total,
		Percent:   percent,
		TimeSec:   timeSec,
		XPGained:  xpGain,
	}
	s.TestHistory = append(s.TestHistory, attempt)
	s.TestsTaken++
	MarkActivityDay(s, now)

	return attempt
}

// SetUserProfile overwrites the username and email when the new values are
// non-empty; an empty value never clears an existing field. The change
// counts as user activity.
func SetUserProfile(s *models.UserState, now time.Time, username, email string) {
	if username != "" {
		s.Username = username
	}
	if email != "" {
		e := email
		s.Email = &e
	}
	MarkActivityDay(s, now)
}

// ResetState returns a fresh default profile carrying forward only the
// username.
func ResetState(username string) *models.UserState {
	fresh := models.DefaultUserState()
	if username != "" {
		fresh.Username = username
	}
	return fresh
}

// LastTestAttempt returns the most recent attempt, or nil when none exist.
func LastTestAttempt(s *models.UserState) *models.TestAttempt {
	if len(s.TestHistory) == 0 {
		return nil
	}
	return &s.TestHistory[len(s.TestHistory)-1]
}

// LastAttemptForTest returns the most recent attempt for a given test id,
// or nil when the test was never attempted.
func LastAttemptForTest(s *models.UserState, testID string) *models.TestAttempt {
	for i := len(s.TestHistory) - 1; i >= 0; i-- {
		if s.TestHistory[i].TestID == testID {
			return &s.TestHistory[i]
		}
	}
	return nil
}
