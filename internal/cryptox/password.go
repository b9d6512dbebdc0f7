// Package cryptox implements the password contract for persisted profiles:
// a random salt plus a PBKDF2-HMAC-SHA256 derived key, both stored as hex
// on the user state together with the round count.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/dmitrijs2005/qubicboard/internal/common"
	"github.com/dmitrijs2005/qubicboard/internal/models"
	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize      = 16
	keySize       = 32
	defaultRounds = 200_000
)

func deriveKeyHex(password string, saltHex string, rounds int) string {
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		// a corrupted salt can never verify
		return ""
	}
	dk := pbkdf2.Key([]byte(password), salt, rounds, keySize, sha256.New)
	return hex.EncodeToString(dk)
}

// SetPasswordFields generates a fresh random salt and stores the salted
// hash plus metadata on the state. Only the derived key is stored, never
// the password itself.
func SetPasswordFields(state *models.UserState, password string) error {
	salt, err := common.MakeRandHexString(saltSize)
	if err != nil {
		return err
	}

	state.AuthPwSalt = salt
	state.AuthPwHash = deriveKeyHex(password, salt, defaultRounds)
	state.AuthPwRounds = defaultRounds
	return nil
}

// HasPassword reports whether the state carries a complete password record.
// A partial record (missing salt or hash) counts as "no password".
func HasPassword(state *models.UserState) bool {
	return state.AuthPwSalt != "" && state.AuthPwHash != ""
}

// VerifyPassword recomputes the derivation with the stored salt and round
// count and compares it with the stored hash in constant time. It returns
// false (never an error) when the record is missing or corrupted.
func VerifyPassword(state *models.UserState, password string) bool {
	if !HasPassword(state) {
		return false
	}

	rounds := state.AuthPwRounds
	if rounds <= 0 {
		rounds = defaultRounds
	}

	candidate := deriveKeyHex(password, state.AuthPwSalt, rounds)
	if candidate == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(candidate), []byte(state.AuthPwHash)) == 1
}

// ClearPasswordFields removes the password record from the state.
func ClearPasswordFields(state *models.UserState) {
	state.AuthPwSalt = ""
	state.AuthPwHash = ""
	state.AuthPwRounds = 0
}
