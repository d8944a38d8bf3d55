package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks UserStore,Tokens,AuditPublisher

import (
	"context"

	"tenantgate/internal/audit"
	"tenantgate/internal/token"
	"tenantgate/internal/user/models"
	id "tenantgate/pkg/domain"
)

// UserStore reads and writes users of the namespace bound to ctx.
// Error Contract: Find methods return sentinel.ErrNotFound when the user doesn't exist.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// Tokens is the token service surface used by auth flows.
type Tokens interface {
	Issue(ctx context.Context, user token.UserSnapshot) (*token.Pair, error)
	Refresh(ctx context.Context, presented string, user token.UserSnapshot) (*token.Pair, error)
	VerifyAccessToken(ctx context.Context, raw string) (*token.Claims, error)
	VerifyRefreshToken(ctx context.Context, raw string) (*token.Claims, error)
	Revoke(ctx context.Context, refresh string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}
