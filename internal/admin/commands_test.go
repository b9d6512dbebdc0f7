package admin

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/qubicboard/internal/cryptox"
	"github.com/dmitrijs2005/qubicboard/internal/models"
	"github.com/dmitrijs2005/qubicboard/internal/server/repositories/states"
	"github.com/dmitrijs2005/qubicboard/internal/tracker"
)

func newTestApp(t *testing.T) (*App, *states.FileRepository, *bytes.Buffer) {
	t.Helper()
	repo := states.NewFileRepository(t.TempDir())
	out := &bytes.Buffer{}
	return &App{repo: repo, out: out}, repo, out
}

func stubPasswords(t *testing.T, values ...string) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	i := 0
	readPassword = func(int) ([]byte, error) {
		v := values[i]
		i++
		return []byte(v), nil
	}
}

func seedProfile(t *testing.T, repo *states.FileRepository, identity string) *models.UserState {
	t.Helper()
	state := models.DefaultUserState()
	state.Username = identity
	tracker.GrantXP(state, time.Now().UTC(), 250, "Test", "seed")
	require.NoError(t, repo.Save(context.Background(), identity, state))
	return state
}

func TestList(t *testing.T) {
	app, repo, out := newTestApp(t)
	ctx := context.Background()

	app.list(ctx)
	require.Contains(t, out.String(), "No stored profiles")

	seedProfile(t, repo, "alice")
	seedProfile(t, repo, "bob")
	out.Reset()
	app.list(ctx)
	require.Contains(t, out.String(), "alice")
	require.Contains(t, out.String(), "bob")
}

func TestShow(t *testing.T) {
	app, repo, out := newTestApp(t)
	ctx := context.Background()

	app.show(ctx, "ghost")
	require.Contains(t, out.String(), "No profile for ghost")

	seedProfile(t, repo, "alice")
	out.Reset()
	app.show(ctx, "alice")
	s := out.String()
	require.Contains(t, s, "Username:      alice")
	require.Contains(t, s, "XP:            250 (level 1)")
	require.Contains(t, s, "Password set:  false")
}

func TestSetPassword(t *testing.T) {
	app, repo, out := newTestApp(t)
	ctx := context.Background()
	seedProfile(t, repo, "alice")

	stubPasswords(t, "secret99", "secret99")
	app.setPassword(ctx, "alice")
	require.Contains(t, out.String(), "Password updated for alice")

	state, err := repo.Load(ctx, "alice")
	require.NoError(t, err)
	require.True(t, cryptox.HasPassword(state))
	require.True(t, cryptox.VerifyPassword(state, "secret99"))
}

func TestSetPassword_Mismatch(t *testing.T) {
	app, repo, out := newTestApp(t)
	ctx := context.Background()
	seedProfile(t, repo, "alice")

	stubPasswords(t, "secret99", "different")
	app.setPassword(ctx, "alice")
	require.Contains(t, out.String(), "passwords do not match")

	state, err := repo.Load(ctx, "alice")
	require.NoError(t, err)
	require.False(t, cryptox.HasPassword(state))
}

func TestSetPassword_TooShort(t *testing.T) {
	app, repo, out := newTestApp(t)
	ctx := context.Background()
	seedProfile(t, repo, "alice")

	stubPasswords(t, "abc", "abc")
	app.setPassword(ctx, "alice")
	require.Contains(t, out.String(), "password too short")
}

func TestClearPassword(t *testing.T) {
	app, repo, out := newTestApp(t)
	ctx := context.Background()

	state := models.DefaultUserState()
	state.Username = "alice"
	require.NoError(t, cryptox.SetPasswordFields(state, "secret99"))
	require.NoError(t, repo.Save(ctx, "alice", state))

	app.clearPassword(ctx, "alice")
	require.Contains(t, out.String(), "Password cleared for alice")

	got, err := repo.Load(ctx, "alice")
	require.NoError(t, err)
	require.False(t, cryptox.HasPassword(got))
}

func TestReset(t *testing.T) {
	app, repo, out := newTestApp(t)
	ctx := context.Background()
	seedProfile(t, repo, "alice")

	app.reset(ctx, "alice")
	require.Contains(t, out.String(), "Progress reset for alice")

	got, err := repo.Load(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)
	require.Equal(t, 0, got.XP)
	require.Empty(t, got.XPEvents)
}

func TestGetPassword_Error(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return nil, errors.New("boom")
	}
	var out bytes.Buffer
	_, err := getPassword(&out, "Password: ")
	if err == nil {
		t.Fatal("expected error")
	}
}
