package users

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

// Unique constraint names from the schema migration.
const (
	constraintUsername = "users_username_key"
	constraintEmail    = "users_email_key"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (id, username, email, password_hash, role)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING registered_on`

	id := uuid.NewString()

	err := r.db.QueryRowContext(ctx, query,
		id, user.UserName, user.Email, user.PasswordHash, string(user.Role)).Scan(&user.RegisteredOn)

	if err != nil {
		if name, ok := dbx.UniqueViolation(err); ok {
			switch name {
			case constraintUsername:
				return nil, common.ErrDuplicateUsername
			case constraintEmail:
				return nil, common.ErrDuplicateEmail
			}
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.ID = id
	return user, nil
}

const selectUser = `SELECT id, username, email, password_hash, role, registered_on FROM users`

func (r *PostgresRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE username = $1`, userName)
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE email = $1`, email)
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	var role string

	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.UserName, &user.Email, &user.PasswordHash, &role, &user.RegisteredOn)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.Role = models.Role(role)
	return user, nil
}
