package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/qubicboard/internal/common"
	"github.com/dmitrijs2005/qubicboard/internal/logging"
	"github.com/dmitrijs2005/qubicboard/internal/market"
	"github.com/dmitrijs2005/qubicboard/internal/models"
	"github.com/dmitrijs2005/qubicboard/internal/qubic"
	"github.com/dmitrijs2005/qubicboard/internal/server/config"
	"github.com/dmitrijs2005/qubicboard/internal/server/repositories/states"
	"github.com/dmitrijs2005/qubicboard/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	states map[string]*models.UserState
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{states: map[string]*models.UserState{}}
}

func (r *memoryRepo) Load(ctx context.Context, identity string) (*models.UserState, error) {
	s, ok := r.states[identity]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return s.Clone()
}

func (r *memoryRepo) Save(ctx context.Context, identity string, state *models.UserState) error {
	c, err := state.Clone()
	if err != nil {
		return err
	}
	r.states[identity] = c
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, identity string) error {
	delete(r.states, identity)
	return nil
}

func (r *memoryRepo) List(ctx context.Context) ([]string, error) { return nil, nil }

var _ states.Repository = (*memoryRepo)(nil)

type testEnv struct {
	srv  *httptest.Server
	repo *memoryRepo
}

func newTestEnv(t *testing.T, upstream http.Handler) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()

	var endpoint string
	if upstream != nil {
		up := httptest.NewServer(upstream)
		t.Cleanup(up.Close)
		endpoint = up.URL
	} else {
		endpoint = "http://127.0.0.1:0"
	}
	cfg.QubicRPCEndpoint = endpoint
	cfg.MarketAPIEndpoint = endpoint

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	repo := newMemoryRepo()
	sessions := services.NewSessionService(repo, logger, cfg)

	h := NewHandlers(logger, sessions,
		qubic.NewClient(cfg.QubicRPCEndpoint, time.Second),
		market.NewClient(cfg.MarketAPIEndpoint, time.Second),
		cfg)

	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, repo: repo}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	return resp, payload
}

func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()
	resp, payload := e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": username})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := payload["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, err := http.Get(env.srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin_NewUser(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, payload := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "Alice"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "alice", payload["identity"])
	assert.Equal(t, true, payload["is_new"])

	state := payload["state"].(map[string]any)
	assert.Equal(t, float64(10), state["xp"], "welcome bonus")
	assert.NotContains(t, state, "auth_pw_hash")
}

func TestLogin_MissingUsername(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, payload := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, payload["error"], "username")
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, http.MethodGet, "/api/v1/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/profile", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token := env.login(t, "alice")
	resp, _ = env.do(t, http.MethodGet, "/api/v1/profile", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProfile_DerivedValues(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, "alice")

	_, payload := env.do(t, http.MethodPost, "/api/v1/xp", token, map[string]any{
		"amount": 2490, "source": "Simulation", "description": "big run",
	})
	state := payload["state"].(map[string]any)
	assert.Equal(t, float64(2500), state["xp"])

	resp, payload := env.do(t, http.MethodGet, "/api/v1/profile", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(3), payload["level"])
	assert.Equal(t, float64(1), payload["streak"])
}

func TestRecordTestAttempt(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, "alice")

	resp, payload := env.do(t, http.MethodPost, "/api/v1/tests", token, map[string]any{
		"test_id": "t1", "name": "Focus drill", "subject": "Focus",
		"correct": 7, "total": 10, "time_sec": 55,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	attempt := payload["attempt"].(map[string]any)
	assert.Equal(t, 70.0, attempt["percent"])
	assert.Equal(t, float64(140), attempt["xp_gained"])

	state := payload["state"].(map[string]any)
	assert.Equal(t, float64(1), state["tests_taken"])
}

func TestTokensBuy_ValidationAndSuccess(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, "alice")

	// grant coins: 990 XP on top of the welcome bonus -> 100 coins
	env.do(t, http.MethodPost, "/api/v1/xp", token, map[string]any{"amount": 990, "source": "Login", "description": "seed"})

	resp, payload := env.do(t, http.MethodPost, "/api/v1/tokens/buy", token, map[string]any{"amount": 3, "price": 50})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, payload["error"], "coins")

	resp, payload = env.do(t, http.MethodPost, "/api/v1/tokens/buy", token, map[string]any{"amount": 2, "price": 50})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	trade := payload["trade"].(map[string]any)
	assert.Equal(t, "buy", trade["action"])
	assert.Equal(t, float64(-100), trade["coin_delta"])
	assert.Equal(t, float64(2), trade["token_delta"])

	state := payload["state"].(map[string]any)
	assert.Equal(t, float64(0), state["coins"])
	assert.Equal(t, float64(2), state["token_balance"])
}

func TestStatsAndAchievements(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, "alice")

	env.do(t, http.MethodPost, "/api/v1/tests", token, map[string]any{
		"test_id": "t1", "name": "Drill", "subject": "Focus", "correct": 10, "total": 10,
	})

	resp, payload := env.do(t, http.MethodGet, "/api/v1/stats", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), payload["tests_taken"])
	subjects := payload["subjects"].(map[string]any)
	assert.Contains(t, subjects, "Focus")

	resp, payload = env.do(t, http.MethodGet, "/api/v1/achievements", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	achievements := payload["achievements"].([]any)
	assert.Len(t, achievements, 8)
}

func TestQubicOverview_UpstreamDown(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, "alice")

	resp, payload := env.do(t, http.MethodGet, "/api/v1/qubic/overview", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "provider failures stay inside a 200")

	status := payload["status"].(map[string]any)
	assert.NotEmpty(t, status["error"])
}

func TestQubicOverview_HistoryAndBalance(t *testing.T) {
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/status":
			w.Write([]byte(`{"tick": 123456, "price": 0.0000021, "epoch": 42}`))
		case "/v1/balances/QABC":
			w.Write([]byte(`{"balance": 5000}`))
		default:
			http.NotFound(w, r)
		}
	})

	env := newTestEnv(t, upstream)
	token := env.login(t, "alice")

	resp, payload := env.do(t, http.MethodPut, "/api/v1/qubic/identity", token, map[string]string{"identity": " QABC "})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "QABC", payload["qubic_identity"])

	resp, payload = env.do(t, http.MethodGet, "/api/v1/qubic/overview", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, float64(123456), payload["current_tick"])
	history := payload["tick_history"].([]any)
	require.Len(t, history, 1)

	tick := payload["tick"].(map[string]any)
	assert.NotEmpty(t, tick["error"], "tick endpoint 404 degrades to error text")

	balance := payload["balance"].(map[string]any)
	data := balance["data"].(map[string]any)
	assert.Equal(t, float64(5000), data["balance"])

	assert.NotEmpty(t, env.repo.states["alice"].QubicTickHistory, "history persisted")
}

func TestMarketPrices_DegradeToError(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, "alice")

	resp, payload := env.do(t, http.MethodGet, "/api/v1/market/prices", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, payload["error"])
}

func TestMarketPrices_OK(t *testing.T) {
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/simple/price" {
			w.Write([]byte(`{"qubic-network": {"usd": 0.0000021}}`))
			return
		}
		http.NotFound(w, r)
	})
	env := newTestEnv(t, upstream)
	token := env.login(t, "alice")

	resp, payload := env.do(t, http.MethodGet, "/api/v1/market/prices", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	prices := payload["prices"].(map[string]any)
	assert.Contains(t, prices, "qubic-network")
}

func TestResetAndLogout(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, "alice")

	env.do(t, http.MethodPost, "/api/v1/xp", token, map[string]any{"amount": 500, "source": "Login", "description": "seed"})

	resp, payload := env.do(t, http.MethodPost, "/api/v1/auth/reset", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := payload["state"].(map[string]any)
	assert.Equal(t, float64(0), state["xp"])
	assert.Equal(t, "alice", state["username"])

	resp, _ = env.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSetPasswordEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, "alice")

	resp, _ := env.do(t, http.MethodPost, "/api/v1/auth/password", token, map[string]string{
		"password": "abc", "password_confirm": "abc",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/v1/auth/password", token, map[string]string{
		"password": "hunter2", "password_confirm": "hunter2",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// password lives in storage but never in API responses
	resp, payload := env.do(t, http.MethodGet, "/api/v1/profile", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := payload["state"].(map[string]any)
	assert.NotContains(t, state, "auth_pw_hash")
}
