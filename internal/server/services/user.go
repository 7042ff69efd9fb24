// Package services contains server-side business logic. This file implements
// UserService, the session flow controller: registration, login, access
// token refresh and logout over the credential store and refresh ledger.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/marketauth/internal/common"
	"github.com/dmitrijs2005/marketauth/internal/dbx"
	"github.com/dmitrijs2005/marketauth/internal/server/auth"
	"github.com/dmitrijs2005/marketauth/internal/server/models"
	"github.com/dmitrijs2005/marketauth/internal/server/repositories/repomanager"
)

// PasswordHasher hashes and verifies passwords. Verify must return false,
// not panic, on a malformed digest.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// TokenSigner issues and verifies signed tokens.
type TokenSigner interface {
	IssueAccess(subject string) (string, error)
	IssueRefresh(subject string) (string, error)
	VerifyKind(token string, kind auth.TokenKind) (*auth.Claims, error)
}

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
}

// AccessGrant is the result of a refresh: a new access token only.
type AccessGrant struct {
	AccessToken string
	TokenType   string
}

// RegisterInput is what a new user submits. An empty Role means buyer.
type RegisterInput struct {
	UserName string `json:"username" validate:"required,min=3,max=30"`
	Password string `json:"password" validate:"required,min=6"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Role     string `json:"role" validate:"omitempty,oneof=seller buyer"`
}

// UserService runs each flow as a single transaction:
//   - Register: create an identity
//   - Login: verify credentials, mint a token pair, record the refresh token
//   - RefreshToken: mint a new access token from a recorded refresh token
//   - Logout: revoke a recorded refresh token
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	signer      TokenSigner
	observer    FlowObserver
	dummyHash   string
}

// Option customizes a UserService.
type Option func(*UserService)

// WithObserver reports flow outcomes to o.
func WithObserver(o FlowObserver) Option {
	return func(s *UserService) { s.observer = o }
}

// NewUserService wires the flow controller to its collaborators.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher, signer TokenSigner, opts ...Option) *UserService {
	s := &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		signer:      signer,
		observer:    nopObserver{},
	}
	for _, o := range opts {
		o(s)
	}
	// Compared against when the username is unknown, so both login failures
	// cost one hash verification.
	if h, err := hasher.Hash("dummy-password-for-timing-only"); err == nil {
		s.dummyHash = h
	}
	return s
}

// Register creates a new identity. It fails with common.ErrDuplicateUsername
// or common.ErrDuplicateEmail when either is taken; no token is issued.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (user *models.User, err error) {
	defer s.observe(FlowRegister, time.Now(), &err)

	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	in.Email = strings.TrimSpace(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, &ValidationError{Fields: map[string]string{"password": "max"}}
	}

	role := models.RoleBuyer
	if in.Role != "" {
		if role, err = models.ParseRole(in.Role); err != nil {
			return nil, &ValidationError{Fields: map[string]string{"role": "oneof"}}
		}
	}

	user, err = dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		repo := s.repomanager.Users(tx)

		if _, err := repo.GetUserByLogin(ctx, in.UserName); err == nil {
			return nil, common.ErrDuplicateUsername
		} else if !errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}

		if _, err := repo.GetUserByEmail(ctx, in.Email); err == nil {
			return nil, common.ErrDuplicateEmail
		} else if !errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}

		digest, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
		}

		return repo.Create(ctx, &models.User{
			UserName:     in.UserName,
			Email:        in.Email,
			PasswordHash: digest,
			Role:         role,
		})
	})
	if err != nil {
		return nil, classify(err)
	}
	return user, nil
}

// Login verifies credentials and returns a new token pair. Unknown username
// and wrong password both fail with common.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, userName, password string) (pair *TokenPair, err error) {
	defer s.observe(FlowLogin, time.Now(), &err)

	pair, err = dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*TokenPair, error) {
		user, err := s.repomanager.Users(tx).GetUserByLogin(ctx, userName)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				s.hasher.Verify(password, s.dummyHash)
				return nil, common.ErrInvalidCredentials
			}
			return nil, err
		}

		if !s.hasher.Verify(password, user.PasswordHash) {
			return nil, common.ErrInvalidCredentials
		}

		return s.generateTokenPair(ctx, user, tx)
	})
	if err != nil {
		return nil, classify(err)
	}
	return pair, nil
}

// RefreshToken exchanges a recorded refresh token for a new access token.
// The refresh token itself is neither rotated nor removed, even when it
// turns out to be expired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (grant *AccessGrant, err error) {
	defer s.observe(FlowRefresh, time.Now(), &err)

	grant, err = dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*AccessGrant, error) {
		rec, err := s.repomanager.RefreshTokens(tx).Find(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, common.ErrUnknownRefreshToken
			}
			return nil, err
		}

		if _, err := s.signer.VerifyKind(rec.Token, auth.KindRefresh); err != nil {
			return nil, err
		}

		user, err := s.repomanager.Users(tx).GetUserByID(ctx, rec.UserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, common.ErrUnknownRefreshToken
			}
			return nil, err
		}

		access, err := s.signer.IssueAccess(user.UserName)
		if err != nil {
			return nil, fmt.Errorf("%w: issue access token: %v", common.ErrorInternal, err)
		}
		return &AccessGrant{AccessToken: access, TokenType: common.TokenType}, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return grant, nil
}

// Logout removes a refresh token from the ledger. Access tokens already
// issued stay valid until they expire.
func (s *UserService) Logout(ctx context.Context, refreshToken string) (err error) {
	defer s.observe(FlowLogout, time.Now(), &err)

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.RefreshTokens(tx)

		if _, err := repo.Find(ctx, refreshToken); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrUnknownRefreshToken
			}
			return err
		}

		if err := repo.Delete(ctx, refreshToken); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrUnknownRefreshToken
			}
			return err
		}
		return nil
	})
	return classify(err)
}

// WhoAmI resolves the identity behind an access token.
func (s *UserService) WhoAmI(ctx context.Context, accessToken string) (user *models.User, err error) {
	defer s.observe(FlowWhoAmI, time.Now(), &err)

	claims, err := s.signer.VerifyKind(accessToken, auth.KindAccess)
	if err != nil {
		return nil, err
	}

	user, err = s.repomanager.Users(s.db).GetUserByLogin(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, classify(err)
	}
	return user, nil
}

func (s *UserService) generateTokenPair(ctx context.Context, user *models.User, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.signer.IssueAccess(user.UserName)
	if err != nil {
		return nil, fmt.Errorf("%w: issue access token: %v", common.ErrorInternal, err)
	}
	refresh, err := s.signer.IssueRefresh(user.UserName)
	if err != nil {
		return nil, fmt.Errorf("%w: issue refresh token: %v", common.ErrorInternal, err)
	}
	if _, err := s.repomanager.RefreshTokens(tx).Create(ctx, user.ID, refresh); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: common.TokenType}, nil
}

func (s *UserService) observe(flow string, start time.Time, err *error) {
	s.observer.ObserveFlow(flow, *err, time.Since(start))
}

// outcomes that are a deterministic result of input and state.
var domainErrors = []error{
	common.ErrValidation,
	common.ErrDuplicateUsername,
	common.ErrDuplicateEmail,
	common.ErrInvalidCredentials,
	common.ErrUnknownRefreshToken,
	common.ErrTokenExpired,
	common.ErrInvalidSignature,
	common.ErrorInternal,
	common.ErrStorageUnavailable,
}

// classify passes domain errors through. Of the rest, transient storage
// failures become common.ErrStorageUnavailable and everything else
// common.ErrorInternal.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return err
		}
	}
	if dbx.IsTransient(err) {
		return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%w: %v", common.ErrorInternal, err)
}
