// Package common contains shared constants and sentinel errors used across
// marketauth components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound requests.
const AccessTokenHeaderName = "access_token"

// TokenType is the token_type value reported alongside issued tokens.
const TokenType = "Bearer"
