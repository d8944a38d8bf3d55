package token

import "errors"

var (
	// ErrInvalidToken covers bad signatures, expiry, unknown key ids,
	// malformed input and wrong token types alike.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrRevoked marks a refresh token found on the blacklist.
	ErrRevoked = errors.New("token revoked")
)
