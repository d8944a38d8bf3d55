package main

import (
	"context"

	"tenantgate/internal/token"
	authmw "tenantgate/pkg/platform/middleware/auth"
)

// bearerVerifier lets the auth middleware verify access tokens without
// depending on the token package.
type bearerVerifier struct {
	tokens *token.Service
}

func (v bearerVerifier) VerifyBearer(ctx context.Context, raw string) (*authmw.Claims, error) {
	claims, err := v.tokens.VerifyAccessToken(ctx, raw)
	if err != nil {
		return nil, err
	}
	return &authmw.Claims{UserID: claims.Subject, JTI: claims.ID}, nil
}
