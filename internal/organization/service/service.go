// Package service provisions organizations: a tenant record with its own
// namespace and, optionally, an administrator inside that namespace.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tenantgate/internal/audit"
	orgmetrics "tenantgate/internal/organization/metrics"
	tenant "tenantgate/internal/tenant/models"
	"tenantgate/internal/tenant/namespace"
	"tenantgate/internal/user/models"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/requestcontext"
	"tenantgate/pkg/secrets"
)

// MsgRolledBack is returned whenever a partially created organization was
// compensated.
const MsgRolledBack = "Organization provisioning failed and has been rolled back."

// rollbackTimeout bounds the compensating delete, which runs even when the
// request context is already done.
const rollbackTimeout = 10 * time.Second

type Service struct {
	tenants TenantStore
	users   UserStore
	binder  namespace.Binder
	tx      StoreTx
	logger  *slog.Logger
	audit   AuditPublisher
	metrics *orgmetrics.Metrics
}

func New(tenants TenantStore, users UserStore, binder namespace.Binder, opts ...Option) (*Service, error) {
	if tenants == nil || users == nil || binder == nil {
		return nil, errors.New("tenant store, user store and namespace binder are required")
	}
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.tx == nil {
		cfg.tx = newInMemoryStoreTx()
	}
	return &Service{
		tenants: tenants,
		users:   users,
		binder:  binder,
		tx:      cfg.tx,
		logger:  cfg.logger,
		audit:   cfg.auditPublisher,
		metrics: cfg.metrics,
	}, nil
}

// Create validates the command, creates the tenant and, when every admin
// field is present, its administrator. A failed admin creation deletes the
// tenant again before the error is returned.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Result, error) {
	start := time.Now()
	defer s.metrics.ObserveProvision(start)

	if err := tenant.Validate(cmd.Name, cmd.SchemaName); err != nil {
		return nil, err
	}

	// Hash before any mutation so a rejected password leaves nothing behind.
	var adminHash string
	if cmd.Admin.Complete() {
		hash, err := secrets.Hash(cmd.Admin.Password)
		if err != nil {
			return nil, err
		}
		adminHash = hash
	}

	org, err := tenant.NewTenant(id.NewTenantID(), cmd.Name, cmd.SchemaName, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		return s.createTenant(txCtx, org)
	}); err != nil {
		return nil, err
	}

	s.metrics.IncrementOrganizationCreated()
	s.emit(ctx, audit.Event{Action: audit.ActionOrganizationCreated, TenantID: org.ID.String(), Schema: org.SchemaName})
	s.logger.InfoContext(ctx, "organization created",
		"org_id", org.ID.String(),
		"schema_name", org.SchemaName,
		"request_id", requestcontext.RequestID(ctx),
	)

	res := &Result{Organization: org}
	if !cmd.Admin.Complete() {
		s.logger.DebugContext(ctx, "admin credentials incomplete, skipping admin creation",
			"schema_name", org.SchemaName,
		)
		return res, nil
	}

	admin, err := s.createAdmin(ctx, org, cmd.Admin, adminHash)
	if err != nil {
		s.logger.ErrorContext(ctx, "admin creation failed, rolling back organization",
			"error", err,
			"org_id", org.ID.String(),
			"schema_name", org.SchemaName,
			"request_id", requestcontext.RequestID(ctx),
		)
		s.rollback(ctx, org)
		return nil, dErrors.Wrap(err, dErrors.CodeProvisioning, MsgRolledBack)
	}
	res.Admin = admin
	return res, nil
}

func (s *Service) createTenant(ctx context.Context, org *tenant.Tenant) error {
	_, err := s.tenants.FindBySchemaName(ctx, org.SchemaName)
	switch {
	case err == nil:
		return schemaTaken(org.SchemaName)
	case !errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up organization")
	}

	if err := s.tenants.Create(ctx, org); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return schemaTaken(org.SchemaName)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create organization")
	}
	return nil
}

func (s *Service) createAdmin(ctx context.Context, org *tenant.Tenant, admin AdminCommand, hash string) (*models.User, error) {
	scoped, release, err := s.binder.Bind(ctx, org.SchemaName)
	if err != nil {
		return nil, fmt.Errorf("bind namespace %s: %w", org.SchemaName, err)
	}
	defer release()

	user, err := models.NewUser(id.NewUserID(), admin.Username, admin.Email, hash, []string{models.RoleAdmin}, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(scoped, user); err != nil {
		return nil, fmt.Errorf("create admin user: %w", err)
	}

	s.emit(ctx, audit.Event{
		Action:   audit.ActionUserCreated,
		TenantID: org.ID.String(),
		Schema:   org.SchemaName,
		UserID:   user.ID.String(),
		Username: user.Username,
	})
	return user, nil
}

// rollback deletes org. Its failure is logged and counted but never
// replaces the error that caused it.
func (s *Service) rollback(ctx context.Context, org *tenant.Tenant) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	if err := s.tenants.Delete(rctx, org); err != nil {
		s.metrics.IncrementRollback(orgmetrics.RollbackFailed)
		s.logger.ErrorContext(ctx, "organization_rollback_failed",
			"error", err,
			"org_id", org.ID.String(),
			"schema_name", org.SchemaName,
			"request_id", requestcontext.RequestID(ctx),
		)
		s.emit(ctx, audit.Event{
			Action:   audit.ActionOrganizationRolledBack,
			TenantID: org.ID.String(),
			Schema:   org.SchemaName,
			Reason:   orgmetrics.RollbackFailed,
		})
		return
	}
	s.metrics.IncrementRollback(orgmetrics.RollbackSucceeded)
	s.emit(ctx, audit.Event{
		Action:   audit.ActionOrganizationRolledBack,
		TenantID: org.ID.String(),
		Schema:   org.SchemaName,
		Reason:   orgmetrics.RollbackSucceeded,
	})
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	s.audit.Emit(ctx, event)
}

func schemaTaken(schemaName string) error {
	return dErrors.New(dErrors.CodeConflict, fmt.Sprintf("Organization schema '%s' already exists", schemaName))
}
