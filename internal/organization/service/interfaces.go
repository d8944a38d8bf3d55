package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks TenantStore,UserStore,AuditPublisher

import (
	"context"

	"tenantgate/internal/audit"
	tenant "tenantgate/internal/tenant/models"
	"tenantgate/internal/user/models"
)

// TenantStore persists organizations. Create also provisions the tenant's
// namespace and Delete drops it.
// Error Contract: FindBySchemaName returns sentinel.ErrNotFound when absent.
type TenantStore interface {
	Create(ctx context.Context, t *tenant.Tenant) error
	Delete(ctx context.Context, t *tenant.Tenant) error
	FindBySchemaName(ctx context.Context, schemaName string) (*tenant.Tenant, error)
}

// UserStore creates users inside the namespace bound to ctx.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}
