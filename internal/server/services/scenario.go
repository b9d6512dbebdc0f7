package services

import (
	"context"

	"github.com/dmitrijs2005/qubicboard/internal/models"
	"github.com/dmitrijs2005/qubicboard/internal/tracker"
)

// Scenario is the active quiz/simulation metadata for a session. It lives
// with the session only and is never persisted.
type Scenario struct {
	TestID  string `json:"test_id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
}

// SetScenario remembers the active scenario for the identity's session and
// counts the interaction as user activity.
func (s *SessionService) SetScenario(ctx context.Context, identity string, sc Scenario) {
	sess := s.getSession(ctx, identity)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.scenario = &sc
	tracker.MarkActivityDay(sess.state, timeNow())
	s.save(ctx, identity, sess.state)
}

// Scenario returns the session's active scenario, or nil when none was set.
func (s *SessionService) Scenario(ctx context.Context, identity string) *Scenario {
	sess := s.getSession(ctx, identity)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.scenario == nil {
		return nil
	}
	sc := *sess.scenario
	return &sc
}

// UpdateQubicIdentity stores the Qubic address used for balance lookups.
func (s *SessionService) UpdateQubicIdentity(ctx context.Context, identity, qubicIdentity string) (*models.UserState, error) {
	return s.Update(ctx, identity, func(state *models.UserState) error {
		state.QubicIdentity = qubicIdentity
		return nil
	})
}
