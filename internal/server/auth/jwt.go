// Package auth holds the credential primitives: password hashing and signed
// token issuance/verification.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/marketauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind tells access tokens and refresh tokens apart.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Claims are the registered JWT claims plus the token kind. Subject carries
// the username.
type Claims struct {
	jwt.RegisteredClaims
	Kind TokenKind `json:"typ"`
}

// Signer issues and verifies HMAC-signed JWTs. It is immutable after
// construction and safe for concurrent use.
type Signer struct {
	method     jwt.SigningMethod
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// SignerOption customizes a Signer.
type SignerOption func(*Signer)

// WithClock replaces time.Now for issuing and verifying.
func WithClock(now func() time.Time) SignerOption {
	return func(s *Signer) { s.now = now }
}

// NewSigner builds a Signer for one of HS256, HS384 or HS512.
func NewSigner(secret, algorithm string, accessTTL, refreshTTL time.Duration, opts ...SignerOption) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("empty signing secret")
	}

	var method jwt.SigningMethod
	switch algorithm {
	case "HS256", "":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}

	s := &Signer{
		method:     method,
		key:        []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Issue signs a token for subject that expires after lifetime. Each token
// gets a random jti, so two tokens issued in the same second still differ.
func (s *Signer) Issue(subject string, kind TokenKind, lifetime time.Duration) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(s.method, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
			ID:        uuid.NewString(),
		},
		Kind: kind,
	})

	tokenString, err := token.SignedString(s.key)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

func (s *Signer) IssueAccess(subject string) (string, error) {
	return s.Issue(subject, KindAccess, s.accessTTL)
}

func (s *Signer) IssueRefresh(subject string) (string, error) {
	return s.Issue(subject, KindRefresh, s.refreshTTL)
}

// Verify checks signature, algorithm and expiry. It returns
// common.ErrTokenExpired for a correctly signed but expired token and
// common.ErrInvalidSignature for anything else that fails.
func (s *Signer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidSignature, err)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidSignature
	}

	return claims, nil
}

// VerifyKind is Verify plus a check that the token is of the expected kind.
func (s *Signer) VerifyKind(tokenString string, kind TokenKind) (*Claims, error) {
	claims, err := s.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: expected %s token", common.ErrInvalidSignature, kind)
	}
	return claims, nil
}
