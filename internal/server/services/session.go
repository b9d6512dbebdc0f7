// Package services contains server-side business logic. This file implements
// SessionService, which owns the live UserState instances: one per identity,
// loaded from storage at session start and written back after mutations.
package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/qubicboard/internal/common"
	"github.com/dmitrijs2005/qubicboard/internal/cryptox"
	"github.com/dmitrijs2005/qubicboard/internal/logging"
	"github.com/dmitrijs2005/qubicboard/internal/models"
	"github.com/dmitrijs2005/qubicboard/internal/server/auth"
	"github.com/dmitrijs2005/qubicboard/internal/server/config"
	"github.com/dmitrijs2005/qubicboard/internal/server/repositories/states"
	"github.com/dmitrijs2005/qubicboard/internal/tracker"
)

// timeNow is a seam for tests.
var timeNow = time.Now

// welcomeBonusXP is granted once to a brand-new identity.
const welcomeBonusXP = 10

// session is one live per-identity state. The mutex serializes all access to
// the state, so handlers never mutate the same instance concurrently.
type session struct {
	mu       sync.Mutex
	state    *models.UserState
	scenario *Scenario
}

// SessionService resolves identities, keeps the live state per identity and
// persists it through the configured repository. Saves after mutations are
// best-effort: a failed write is logged, never surfaced as a request error.
type SessionService struct {
	repo   states.Repository
	logger logging.Logger
	cfg    *config.Config

	mu       sync.Mutex
	sessions map[string]*session
}

// NewSessionService constructs a SessionService over the given repository.
func NewSessionService(repo states.Repository, logger logging.Logger, cfg *config.Config) *SessionService {
	return &SessionService{
		repo:     repo,
		logger:   logger,
		cfg:      cfg,
		sessions: make(map[string]*session),
	}
}

// ResolveIdentity normalizes the persistence key: email wins over username,
// both trimmed and lowercased; empty resolves to the anonymous identity.
func ResolveIdentity(username, email string) string {
	id := strings.TrimSpace(email)
	if id == "" {
		id = strings.TrimSpace(username)
	}
	if id == "" {
		return common.AnonymousID
	}
	return strings.ToLower(id)
}

// LoginResult is what a successful login yields: the resolved identity, a
// session token and whether the identity had no stored state before.
type LoginResult struct {
	Identity string
	Token    string
	IsNew    bool
}

// Login starts (or restarts) a session for the given profile.
//
// If the identity has a stored password, the provided password must verify.
// Otherwise a password may optionally be created (confirmation must match,
// minimum length 4); the state is saved immediately so the password is
// durable, and a brand-new identity receives a small welcome XP grant.
func (s *SessionService) Login(ctx context.Context, username, email, password, passwordConfirm string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" && email == "" {
		return nil, common.ErrUsernameRequired
	}
	identity := ResolveIdentity(username, email)

	saved, loadErr := s.repo.Load(ctx, identity)
	isNew := loadErr != nil
	if loadErr != nil && !errors.Is(loadErr, common.ErrorNotFound) {
		s.logger.Warn(ctx, "could not load state, starting fresh", "identity", identity, "error", loadErr)
	}

	now := timeNow()

	if !isNew && cryptox.HasPassword(saved) {
		if password == "" {
			return nil, common.ErrWrongPassword
		}
		if !cryptox.VerifyPassword(saved, password) {
			return nil, common.ErrWrongPassword
		}
		tracker.SetUserProfile(saved, now, username, email)
		s.putSession(identity, saved)
		return s.loginResult(identity, false)
	}

	state := saved
	if state == nil {
		state = models.DefaultUserState()
	}
	tracker.SetUserProfile(state, now, username, email)

	if password != "" || passwordConfirm != "" {
		if password != passwordConfirm {
			return nil, common.ErrPasswordMismatch
		}
		if len(password) < 4 {
			return nil, common.ErrPasswordTooShort
		}
		if err := cryptox.SetPasswordFields(state, password); err != nil {
			return nil, err
		}
	}

	s.putSession(identity, state)
	s.save(ctx, identity, state)

	if isNew {
		tracker.GrantXP(state, now, welcomeBonusXP, models.XPSourceLogin, "Welcome bonus")
	}

	return s.loginResult(identity, isNew)
}

func (s *SessionService) loginResult(identity string, isNew bool) (*LoginResult, error) {
	token, err := auth.GenerateToken(identity, []byte(s.cfg.SecretKey), s.cfg.AccessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &LoginResult{Identity: identity, Token: token, IsNew: isNew}, nil
}

func (s *SessionService) putSession(identity string, state *models.UserState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[identity]
	if !ok {
		sess = &session{}
		s.sessions[identity] = sess
	}
	sess.mu.Lock()
	sess.state = state
	sess.mu.Unlock()
}

// getSession returns the live session for the identity, loading state from
// the repository (or defaults) on first access. Tokens outlive server
// restarts, so a valid token may arrive for an identity with no session yet.
func (s *SessionService) getSession(ctx context.Context, identity string) *session {
	s.mu.Lock()
	sess, ok := s.sessions[identity]
	if !ok {
		sess = &session{}
		s.sessions[identity] = sess
	}
	s.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.state == nil {
		state, err := s.repo.Load(ctx, identity)
		if err != nil {
			if !errors.Is(err, common.ErrorNotFound) {
				s.logger.Warn(ctx, "could not load state, starting fresh", "identity", identity, "error", err)
			}
			state = models.DefaultUserState()
		}
		sess.state = state
	}
	return sess
}

// save persists the state unless the identity is anonymous. Failures are
// logged and absorbed.
func (s *SessionService) save(ctx context.Context, identity string, state *models.UserState) {
	if identity == common.AnonymousID {
		return
	}
	if err := s.repo.Save(ctx, identity, state); err != nil {
		s.logger.Warn(ctx, "state not persisted", "identity", identity, "error", err)
	}
}

// Update runs fn against the identity's live state under the session lock
// and saves the result best-effort. It returns a snapshot of the state after
// the mutation. A non-nil error from fn aborts the save.
func (s *SessionService) Update(ctx context.Context, identity string, fn func(state *models.UserState) error) (*models.UserState, error) {
	sess := s.getSession(ctx, identity)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := fn(sess.state); err != nil {
		return nil, err
	}
	s.save(ctx, identity, sess.state)
	return sess.state.Clone()
}

// Read returns a snapshot of the identity's live state without saving.
func (s *SessionService) Read(ctx context.Context, identity string) (*models.UserState, error) {
	sess := s.getSession(ctx, identity)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state.Clone()
}

// SetPassword sets or replaces the password on the live state and saves
// immediately so the credential survives a crash.
func (s *SessionService) SetPassword(ctx context.Context, identity, password, passwordConfirm string) error {
	if password != passwordConfirm {
		return common.ErrPasswordMismatch
	}
	if len(password) < 4 {
		return common.ErrPasswordTooShort
	}

	sess := s.getSession(ctx, identity)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := cryptox.SetPasswordFields(sess.state, password); err != nil {
		return err
	}
	s.save(ctx, identity, sess.state)
	return nil
}

// Reset replaces the identity's state with defaults, keeping only the
// username, and persists the fresh state.
func (s *SessionService) Reset(ctx context.Context, identity string) (*models.UserState, error) {
	sess := s.getSession(ctx, identity)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	fresh := tracker.ResetState(sess.state.Username)
	sess.state = fresh
	s.save(ctx, identity, fresh)
	return fresh.Clone()
}

// Logout saves the state and drops the live session.
func (s *SessionService) Logout(ctx context.Context, identity string) {
	s.mu.Lock()
	sess, ok := s.sessions[identity]
	if ok {
		delete(s.sessions, identity)
	}
	s.mu.Unlock()

	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.state != nil {
		s.save(ctx, identity, sess.state)
	}
}

// Shutdown persists every live session. Called when the server stops.
func (s *SessionService) Shutdown(ctx context.Context) {
	s.mu.Lock()
	sessions := make(map[string]*session, len(s.sessions))
	for id, sess := range s.sessions {
		sessions[id] = sess
	}
	s.mu.Unlock()

	for id, sess := range sessions {
		sess.mu.Lock()
		if sess.state != nil {
			s.save(ctx, id, sess.state)
		}
		sess.mu.Unlock()
	}
}
