// Package httpapi exposes the dashboard over HTTP: session login, profile
// and progression reads, XP/test/trade mutations and the external network
// and market data sections.
package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/qubicboard/internal/cryptox"
	"github.com/dmitrijs2005/qubicboard/internal/logging"
	"github.com/dmitrijs2005/qubicboard/internal/market"
	"github.com/dmitrijs2005/qubicboard/internal/models"
	"github.com/dmitrijs2005/qubicboard/internal/progression"
	"github.com/dmitrijs2005/qubicboard/internal/qubic"
	"github.com/dmitrijs2005/qubicboard/internal/server/config"
	"github.com/dmitrijs2005/qubicboard/internal/server/services"
	"github.com/dmitrijs2005/qubicboard/internal/tracker"
)

// timeNow is a seam for tests.
var timeNow = time.Now

// Handlers bundles the services behind the HTTP surface.
type Handlers struct {
	logger   logging.Logger
	sessions *services.SessionService
	qubic    *qubic.Client
	market   *market.Client
	cfg      *config.Config
}

func NewHandlers(logger logging.Logger, sessions *services.SessionService, qubicClient *qubic.Client, marketClient *market.Client, cfg *config.Config) *Handlers {
	return &Handlers{
		logger:   logger,
		sessions: sessions,
		qubic:    qubicClient,
		market:   marketClient,
		cfg:      cfg,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

// snapshot strips credentials from a state clone before it goes on the wire.
func snapshot(state *models.UserState) *models.UserState {
	cryptox.ClearPasswordFields(state)
	return state
}

type loginRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type loginResponse struct {
	Token    string            `json:"token"`
	Identity string            `json:"identity"`
	IsNew    bool              `json:"is_new"`
	State    *models.UserState `json:"state"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.sessions.Login(r.Context(), req.Username, req.Email, req.Password, req.PasswordConfirm)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	state, err := h.sessions.Read(r.Context(), res.Identity)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:    res.Token,
		Identity: res.Identity,
		IsNew:    res.IsNew,
		State:    snapshot(state),
	})
}

type passwordRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

func (h *Handlers) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	identity := IdentityFromContext(r.Context())
	if err := h.sessions.SetPassword(r.Context(), identity, req.Password, req.PasswordConfirm); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	fresh, err := h.sessions.Reset(r.Context(), identity)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"state": snapshot(fresh)})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(r.Context(), IdentityFromContext(r.Context()))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type profileResponse struct {
	State      *models.UserState    `json:"state"`
	Level      int                  `json:"level"`
	Progress   progression.Progress `json:"progress"`
	Streak     int                  `json:"streak"`
	BestStreak int                  `json:"best_streak"`
	Scenario   *services.Scenario   `json:"scenario,omitempty"`
}

func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	state, err := h.sessions.Read(r.Context(), identity)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		State:      snapshot(state),
		Level:      progression.LevelFromXP(state.XP),
		Progress:   progression.XPProgress(state.XP),
		Streak:     progression.ComputeStreak(state.DaysActive, timeNow()),
		BestStreak: progression.ComputeBestStreak(state.DaysActive),
		Scenario:   h.sessions.Scenario(r.Context(), identity),
	})
}

type profileUpdateRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	identity := IdentityFromContext(r.Context())
	state, err := h.sessions.Update(r.Context(), identity, func(state *models.UserState) error {
		tracker.SetUserProfile(state, timeNow(), req.Username, req.Email)
		return nil
	})
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"state": snapshot(state)})
}

type grantXPRequest struct {
	Amount      int    `json:"amount"`
	Source      string `json:"source"`
	Description string `json:"description"`
}

func (h *Handlers) GrantXP(w http.ResponseWriter, r *http.Request) {
	var req grantXPRequest
	if !decodeBody(w, r, &req) {
		return
	}

	identity := IdentityFromContext(r.Context())
	state, err := h.sessions.Update(r.Context(), identity, func(state *models.UserState) error {
		tracker.GrantXP(state, timeNow(), req.Amount, req.Source, req.Description)
		return nil
	})
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"state": snapshot(state)})
}

type testAttemptRequest struct {
	TestID  string `json:"test_id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Correct int    `json:"correct"`
	Total   int    `json:"total"`
	TimeSec int    `json:"time_sec"`
}

func (h *Handlers) RecordTestAttempt(w http.ResponseWriter, r *http.Request) {
	var req testAttemptRequest
	if !decodeBody(w, r, &req) {
		return
	}

	identity := IdentityFromContext(r.Context())
	var attempt models.TestAttempt
	state, err := h.sessions.Update(r.Context(), identity, func(state *models.UserState) error {
		attempt = tracker.RecordTestAttempt(state, timeNow(), req.TestID, req.Name, req.Subject, req.Correct, req.Total, req.TimeSec)
		return nil
	})
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"attempt": attempt, "state": snapshot(state)})
}

func (h *Handlers) SetScenario(w http.ResponseWriter, r *http.Request) {
	var req services.Scenario
	if !decodeBody(w, r, &req) {
		return
	}

	identity := IdentityFromContext(r.Context())
	h.sessions.SetScenario(r.Context(), identity, req)
	writeJSON(w, http.StatusOK, map[string]any{"scenario": req})
}

type statsResponse struct {
	XPByDay    map[string]int                      `json:"xp_by_day"`
	Subjects   map[string]progression.SubjectStats `json:"subjects"`
	Streak     int                                 `json:"streak"`
	BestStreak int                                 `json:"best_streak"`
	TestsTaken int                                 `json:"tests_taken"`
}

func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	state, err := h.sessions.Read(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		XPByDay:    progression.XPByDay(state.XPEvents),
		Subjects:   progression.SubjectBreakdown(state.TestHistory),
		Streak:     progression.ComputeStreak(state.DaysActive, timeNow()),
		BestStreak: progression.ComputeBestStreak(state.DaysActive),
		TestsTaken: state.TestsTaken,
	})
}

func (h *Handlers) GetAchievements(w http.ResponseWriter, r *http.Request) {
	state, err := h.sessions.Read(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"achievements": progression.Achievements(state, timeNow()),
	})
}

type tradeRequest struct {
	Amount float64 `json:"amount"`
	Price  float64 `json:"price"`
}

func (h *Handlers) BuyTokens(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, tracker.BuyTokens)
}

func (h *Handlers) SellTokens(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, tracker.SellTokens)
}

func (h *Handlers) trade(w http.ResponseWriter, r *http.Request, op func(*models.UserState, time.Time, float64, float64) error) {
	var req tradeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	identity := IdentityFromContext(r.Context())
	state, err := h.sessions.Update(r.Context(), identity, func(state *models.UserState) error {
		return op(state, timeNow(), req.Amount, req.Price)
	})
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	var trade *models.TokenTrade
	if n := len(state.TokenTrades); n > 0 {
		trade = &state.TokenTrades[n-1]
	}
	writeJSON(w, http.StatusOK, map[string]any{"trade": trade, "state": snapshot(state)})
}

func (h *Handlers) GetTrades(w http.ResponseWriter, r *http.Request) {
	state, err := h.sessions.Read(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"trades":        state.TokenTrades,
		"coins":         state.Coins,
		"token_balance": state.TokenBalance,
	})
}
