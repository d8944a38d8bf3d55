package service

import (
	"errors"

	"tenantgate/internal/token"
	dErrors "tenantgate/pkg/domain-errors"
)

// Client-facing messages. Verification failures share one message so callers
// cannot tell an expired token from a forged one.
const (
	msgInvalidCredentials = "Invalid credentials"
	msgInvalidRefresh     = "Invalid or expired refresh token"
	msgInvalidToken       = "Invalid or expired token"
	msgUserNotFound       = "User not found"
	msgUsernameTaken      = "Username already exists"
	msgEmailTaken         = "Email already exists"
	msgTenantRequired     = "Organization context is required for registration"
)

func isTokenRejection(err error) bool {
	return errors.Is(err, token.ErrInvalidToken) || errors.Is(err, token.ErrRevoked)
}

// tokenErr converts token-layer failures into a 401 with msg, and anything
// else (key or blacklist faults) into an internal error.
func tokenErr(err error, msg string) error {
	if isTokenRejection(err) {
		return dErrors.Wrap(err, dErrors.CodeUnauthorized, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "token operation failed")
}
