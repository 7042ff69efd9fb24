package common

import "errors"

// Code returns a stable machine-readable name for err, used in API error
// bodies and metric labels. nil maps to "ok"; anything unrecognized maps to
// "internal_error".
func Code(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation_failed"
	case errors.Is(err, ErrDuplicateUsername):
		return "duplicate_username"
	case errors.Is(err, ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrUnknownRefreshToken):
		return "unknown_refresh_token"
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_token"
	case errors.Is(err, ErrStorageUnavailable):
		return "storage_unavailable"
	default:
		return "internal_error"
	}
}
