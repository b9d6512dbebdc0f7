package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/dmitrijs2005/qubicboard/internal/common"
	"github.com/dmitrijs2005/qubicboard/internal/cryptox"
	"github.com/dmitrijs2005/qubicboard/internal/progression"
	"github.com/dmitrijs2005/qubicboard/internal/tracker"
)

// readPassword is a test seam for term.ReadPassword.
// In tests you can replace it with a stub to avoid touching the terminal.
var readPassword = term.ReadPassword

func getPassword(w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func (a *App) list(ctx context.Context) {
	ids, err := a.repo.List(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	if len(ids) == 0 {
		fmt.Fprintln(a.out, "No stored profiles")
		return
	}
	for _, id := range ids {
		fmt.Fprintln(a.out, id)
	}
}

func (a *App) show(ctx context.Context, identity string) {
	state, err := a.repo.Load(ctx, identity)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			fmt.Fprintln(a.out, "No profile for", identity)
		} else {
			fmt.Fprintln(a.out, "Error:", err)
		}
		return
	}

	email := ""
	if state.Email != nil {
		email = *state.Email
	}

	fmt.Fprintf(a.out, "Username:      %s\n", state.Username)
	fmt.Fprintf(a.out, "Email:         %s\n", email)
	fmt.Fprintf(a.out, "XP:            %d (level %d)\n", state.XP, progression.LevelFromXP(state.XP))
	fmt.Fprintf(a.out, "Coins:         %d\n", state.Coins)
	fmt.Fprintf(a.out, "Gems:          %d\n", state.Gems)
	fmt.Fprintf(a.out, "Tests taken:   %d\n", state.TestsTaken)
	fmt.Fprintf(a.out, "Token balance: %g\n", state.TokenBalance)
	fmt.Fprintf(a.out, "Streak:        %d\n", progression.ComputeStreak(state.DaysActive, time.Now().UTC()))
	fmt.Fprintf(a.out, "Days active:   %d\n", len(state.DaysActive))
	fmt.Fprintf(a.out, "Password set:  %t\n", cryptox.HasPassword(state))
}

func (a *App) setPassword(ctx context.Context, identity string) {
	state, err := a.repo.Load(ctx, identity)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}

	password, err := getPassword(a.out, "New password: ")
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	confirm, err := getPassword(a.out, "Confirm password: ")
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	if password != confirm {
		fmt.Fprintln(a.out, "Error:", common.ErrPasswordMismatch)
		return
	}
	if len(password) < 4 {
		fmt.Fprintln(a.out, "Error:", common.ErrPasswordTooShort)
		return
	}

	if err := cryptox.SetPasswordFields(state, password); err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	if err := a.repo.Save(ctx, identity, state); err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	fmt.Fprintln(a.out, "Password updated for", identity)
}

func (a *App) clearPassword(ctx context.Context, identity string) {
	state, err := a.repo.Load(ctx, identity)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	cryptox.ClearPasswordFields(state)
	if err := a.repo.Save(ctx, identity, state); err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	fmt.Fprintln(a.out, "Password cleared for", identity)
}

func (a *App) reset(ctx context.Context, identity string) {
	state, err := a.repo.Load(ctx, identity)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	fresh := tracker.ResetState(state.Username)
	if err := a.repo.Save(ctx, identity, fresh); err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	fmt.Fprintln(a.out, "Progress reset for", identity)
}
