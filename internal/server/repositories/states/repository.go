// Package states persists per-user dashboard state. Three backends are
// provided: flat JSON files, PostgreSQL (JSONB column) and S3-compatible
// object storage. All of them key records by a sanitized identity string.
package states

import (
	"context"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/qubicboard/internal/common"
	"github.com/dmitrijs2005/qubicboard/internal/models"
)

// Repository abstracts state persistence. Load returns common.ErrorNotFound
// when no record exists for the identity.
type Repository interface {
	Load(ctx context.Context, identity string) (*models.UserState, error)
	Save(ctx context.Context, identity string, state *models.UserState) error
	Delete(ctx context.Context, identity string) error
	List(ctx context.Context) ([]string, error)
}

// SafeID reduces an identity to characters safe for file names and object
// keys: letters, digits and "-_.@". An identity with nothing left after
// filtering maps to the anonymous ID.
func SafeID(identity string) string {
	var b strings.Builder
	for _, r := range identity {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("-_.@", r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return common.AnonymousID
	}
	return b.String()
}
