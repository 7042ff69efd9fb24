// Package common defines shared constants and sentinel errors used across
// the client and server layers of marketauth. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// ErrValidation marks malformed user input.
	ErrValidation = errors.New("validation failed")

	// Registration errors.
	ErrDuplicateUsername = errors.New("username already registered")
	ErrDuplicateEmail    = errors.New("email already registered")

	// Authentication errors. Unknown user and wrong password share one value.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Refresh ledger errors.
	ErrUnknownRefreshToken = errors.New("refresh token not found")

	// Token verification errors.
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidSignature = errors.New("invalid token")

	// ErrStorageUnavailable marks transient infrastructure failures; the only
	// class a caller may retry.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
