// Package users declares the credential store: persistent user identities
// looked up by username, email or id.
package users

import (
	"context"

	"github.com/dmitrijs2005/marketauth/internal/server/models"
)

// Repository is the credential store contract. Lookups return
// common.ErrorNotFound when nothing matches. There is no update or delete.
type Repository interface {
	// Create assigns ID and RegisteredOn and persists the user. A taken
	// username or email yields common.ErrDuplicateUsername or
	// common.ErrDuplicateEmail.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}
