package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/qubicboard/internal/common"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusForError maps service errors onto HTTP status codes: bad credentials
// are 401, malformed input 400, rejected mutations 422.
func statusForError(err error) int {
	switch {
	case errors.Is(err, common.ErrWrongPassword):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrUsernameRequired),
		errors.Is(err, common.ErrPasswordMismatch),
		errors.Is(err, common.ErrPasswordTooShort):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrInvalidAmount),
		errors.Is(err, common.ErrInsufficientCoins),
		errors.Is(err, common.ErrInsufficientTokens):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}
