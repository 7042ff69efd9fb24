package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/marketauth/internal/common"
	"github.com/dmitrijs2005/marketauth/internal/dbx"
	"github.com/dmitrijs2005/marketauth/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository implements the ledger over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a ledger record. An unknown owner yields common.ErrorNotFound.
func (r *PostgresRepository) Create(ctx context.Context, userID string, token string) (*models.RefreshToken, error) {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token)
		VALUES ($1, $2, $3)
		RETURNING issued_on
	`
	rec := &models.RefreshToken{ID: uuid.NewString(), UserID: userID, Token: token}

	if err := r.db.QueryRowContext(ctx, query, rec.ID, userID, token).Scan(&rec.IssuedOn); err != nil {
		if dbx.ForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

// Find returns the ledger record for the given token string, locking the row.
func (r *PostgresRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, token, issued_on
		FROM refresh_tokens
		WHERE token = $1
		FOR UPDATE
	`
	rec := &models.RefreshToken{}
	if err := r.db.QueryRowContext(ctx, query, token).Scan(&rec.ID, &rec.UserID, &rec.Token, &rec.IssuedOn); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

// Delete removes a ledger record by its token string.
func (r *PostgresRepository) Delete(ctx context.Context, token string) error {
	query := `
		DELETE FROM refresh_tokens
		WHERE token = $1
	`
	res, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
