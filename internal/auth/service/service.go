// Package service implements login, refresh, logout, token verification and
// registration for users of the request's tenant.
package service

import (
	"errors"
	"log/slog"

	authmetrics "tenantgate/internal/auth/metrics"
	"tenantgate/internal/token"
	"tenantgate/internal/user/models"
	"tenantgate/pkg/requestcontext"
)

type Service struct {
	users   UserStore
	tokens  Tokens
	logger  *slog.Logger
	metrics *authmetrics.Metrics
	audit   AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *authmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.audit = p }
}

func New(users UserStore, tokens Tokens, opts ...Option) (*Service, error) {
	if users == nil || tokens == nil {
		return nil, errors.New("user store and token service are required")
	}
	s := &Service{
		users:  users,
		tokens: tokens,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// snapshot builds the claim source for user from a fresh record and the
// request's resolved tenant.
func snapshot(user *models.User, tenant requestcontext.Tenant) token.UserSnapshot {
	snap := token.UserSnapshot{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Roles:    user.Roles,
	}
	if tenant.Resolved() {
		snap.Tenant = &token.TenantRef{ID: tenant.ID, Name: tenant.Name}
	}
	return snap
}

func tenantLabel(t requestcontext.Tenant) string {
	if !t.Resolved() {
		return "none"
	}
	return t.SchemaName
}
