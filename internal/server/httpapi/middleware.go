package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/qubicboard/internal/common"
	"github.com/dmitrijs2005/qubicboard/internal/server/auth"
)

type contextKey string

const identityContextKey contextKey = "identity"

// IdentityFromContext returns the authenticated identity set by the auth
// middleware, or the anonymous ID when none is present.
func IdentityFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(identityContextKey).(string); ok && id != "" {
		return id
	}
	return common.AnonymousID
}

// authMiddleware validates the bearer token and stores the identity in the
// request context. Requests without a valid token are rejected.
func (h *Handlers) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AccessTokenHeaderName)
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			writeError(w, http.StatusUnauthorized, common.ErrorUnauthorized)
			return
		}

		identity, err := auth.GetIdentityFromToken(token, []byte(h.cfg.SecretKey))
		if err != nil {
			writeError(w, http.StatusUnauthorized, common.ErrInvalidToken)
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
