// Package common defines shared constants and sentinel errors used across
// the qubicboard components. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors surfaced to the user as non-blocking notices.
	ErrorValidation       = errors.New("validation error")
	ErrUsernameRequired   = errors.New("username is required")
	ErrPasswordTooShort   = errors.New("password too short (min 4)")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrWrongPassword      = errors.New("wrong password")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInsufficientCoins  = errors.New("not enough coins")
	ErrInsufficientTokens = errors.New("not enough tokens")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
