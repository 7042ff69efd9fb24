// Package refreshtokens declares the refresh ledger: the server-side record
// of refresh tokens that have been issued and not revoked.
package refreshtokens

import (
	"context"

	"github.com/dmitrijs2005/marketauth/internal/server/models"
)

// Repository defines operations for storing, looking up and revoking
// refresh tokens. Tokens are matched by exact value.
type Repository interface {
	// Create stores token for userID and returns the new record.
	Create(ctx context.Context, userID string, token string) (*models.RefreshToken, error)

	// Find returns the record for token or common.ErrorNotFound. Inside a
	// transaction the row stays locked until commit.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes the record for token. Deleting an absent token returns
	// common.ErrorNotFound.
	Delete(ctx context.Context, token string) error
}
