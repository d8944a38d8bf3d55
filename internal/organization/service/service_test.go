package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"tenantgate/internal/audit"
	"tenantgate/internal/organization/service/mocks"
	tenant "tenantgate/internal/tenant/models"
	"tenantgate/internal/tenant/namespace"
	tenantstore "tenantgate/internal/tenant/store"
	"tenantgate/internal/user/models"
	userstore "tenantgate/internal/user/store"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/secrets"
	"tenantgate/pkg/testutil"
)

type ProvisionerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	tenants *mocks.MockTenantStore
	users   *mocks.MockUserStore
	logs    *bytes.Buffer
	service *Service
}

func TestProvisionerSuite(t *testing.T) {
	suite.Run(t, new(ProvisionerSuite))
}

func (s *ProvisionerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.tenants = mocks.NewMockTenantStore(s.ctrl)
	s.users = mocks.NewMockUserStore(s.ctrl)
	s.logs = &bytes.Buffer{}
	svc, err := New(s.tenants, s.users, namespace.NewMemoryBinder(),
		WithLogger(slog.New(slog.NewJSONHandler(s.logs, nil))),
	)
	s.Require().NoError(err)
	s.service = svc
}

func (s *ProvisionerSuite) TearDownTest() {
	s.ctrl.Finish()
}

var fullAdmin = AdminCommand{Username: "root", Email: "root@acme.test", Password: "s3cret-pw"}

func (s *ProvisionerSuite) TestValidationRunsBeforeAnyStoreCall() {
	cases := map[string]struct {
		cmd CreateCommand
		msg string
	}{
		"missing name":   {CreateCommand{SchemaName: "acme"}, "Both 'name' and 'schema_name' are required."},
		"missing schema": {CreateCommand{Name: "Acme"}, "Both 'name' and 'schema_name' are required."},
		"uppercase":      {CreateCommand{Name: "Acme", SchemaName: "PUBLIC"}, "schema_name must be lowercase, alphanumeric, and underscores only."},
		"dash":           {CreateCommand{Name: "Acme", SchemaName: "acme-1"}, "schema_name must be lowercase, alphanumeric, and underscores only."},
		"reserved":       {CreateCommand{Name: "Acme", SchemaName: "public"}, "schema_name 'public' is reserved and cannot be used."},
		"pg prefix":      {CreateCommand{Name: "Acme", SchemaName: "pg_custom"}, "schema_name 'pg_custom' is reserved and cannot be used."},
	}
	for name, tc := range cases {
		s.Run(name, func() {
			_, err := s.service.Create(context.Background(), tc.cmd)
			s.Require().Error(err)
			s.Equal(tc.msg, err.Error())
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func (s *ProvisionerSuite) TestDuplicateSchemaMutatesNothing() {
	s.tenants.EXPECT().FindBySchemaName(gomock.Any(), "acme").Return(&tenant.Tenant{SchemaName: "acme"}, nil)

	_, err := s.service.Create(context.Background(), CreateCommand{Name: "Acme", SchemaName: "acme", Admin: fullAdmin})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Equal("Organization schema 'acme' already exists", err.Error())
}

func (s *ProvisionerSuite) TestCreateRaceLostIsConflict() {
	s.tenants.EXPECT().FindBySchemaName(gomock.Any(), "acme").Return(nil, sentinel.ErrNotFound)
	s.tenants.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrAlreadyUsed)

	_, err := s.service.Create(context.Background(), CreateCommand{Name: "Acme", SchemaName: "acme"})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ProvisionerSuite) TestWithoutAdmin() {
	s.tenants.EXPECT().FindBySchemaName(gomock.Any(), "acme_1").Return(nil, sentinel.ErrNotFound)
	s.tenants.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	res, err := s.service.Create(context.Background(), CreateCommand{Name: "Acme", SchemaName: "acme_1"})
	s.Require().NoError(err)
	s.Equal("acme_1", res.Organization.SchemaName)
	s.False(res.Organization.ID.IsNil())
	s.Nil(res.Admin)
}

func (s *ProvisionerSuite) TestPartialAdminIsSkipped() {
	s.tenants.EXPECT().FindBySchemaName(gomock.Any(), "acme").Return(nil, sentinel.ErrNotFound)
	s.tenants.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	res, err := s.service.Create(context.Background(), CreateCommand{
		Name: "Acme", SchemaName: "acme",
		Admin: AdminCommand{Username: "root", Email: "root@acme.test"},
	})
	s.Require().NoError(err)
	s.Nil(res.Admin)
}

func (s *ProvisionerSuite) TestAdminCreatedInsideNewNamespace() {
	s.tenants.EXPECT().FindBySchemaName(gomock.Any(), "acme").Return(nil, sentinel.ErrNotFound)
	s.tenants.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	s.users.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, u *models.User) error {
		s.Equal("acme", namespace.SchemaFrom(ctx))
		s.Equal([]string{models.RoleAdmin}, u.Roles)
		s.NoError(secrets.Verify("s3cret-pw", u.PasswordHash))
		return nil
	})

	res, err := s.service.Create(context.Background(), CreateCommand{Name: "Acme", SchemaName: "acme", Admin: fullAdmin})
	s.Require().NoError(err)
	s.Require().NotNil(res.Admin)
	s.Equal("root", res.Admin.Username)
}

func (s *ProvisionerSuite) TestAdminFailureRollsBack() {
	var created *tenant.Tenant
	s.tenants.EXPECT().FindBySchemaName(gomock.Any(), "acme").Return(nil, sentinel.ErrNotFound)
	s.tenants.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, t *tenant.Tenant) error {
		created = t
		return nil
	})
	s.users.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
	s.tenants.EXPECT().Delete(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, t *tenant.Tenant) error {
		s.Same(created, t)
		return nil
	})

	_, err := s.service.Create(context.Background(), CreateCommand{Name: "Acme", SchemaName: "acme", Admin: fullAdmin})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeProvisioning))
	s.Equal(MsgRolledBack, err.Error())
	s.NotContains(s.logs.String(), "organization_rollback_failed")
}

func (s *ProvisionerSuite) TestRollbackFailureIsLoggedAndOriginalErrorReturned() {
	s.tenants.EXPECT().FindBySchemaName(gomock.Any(), "acme").Return(nil, sentinel.ErrNotFound)
	s.tenants.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	cause := errors.New("disk full")
	s.users.EXPECT().Create(gomock.Any(), gomock.Any()).Return(cause)
	s.tenants.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(errors.New("drop schema: connection lost"))

	_, err := s.service.Create(context.Background(), CreateCommand{Name: "Acme", SchemaName: "acme", Admin: fullAdmin})
	s.True(dErrors.HasCode(err, dErrors.CodeProvisioning))
	s.ErrorIs(err, cause)
	s.Contains(s.logs.String(), `"msg":"organization_rollback_failed"`)
	s.Contains(s.logs.String(), "connection lost")
}

func (s *ProvisionerSuite) TestRollbackRunsAfterCancellation() {
	ctx, cancel := context.WithCancel(context.Background())
	s.tenants.EXPECT().FindBySchemaName(gomock.Any(), "acme").Return(nil, sentinel.ErrNotFound)
	s.tenants.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	s.users.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, *models.User) error {
		cancel()
		return context.Canceled
	})
	s.tenants.EXPECT().Delete(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ *tenant.Tenant) error {
		return ctx.Err()
	})

	_, err := s.service.Create(ctx, CreateCommand{Name: "Acme", SchemaName: "acme", Admin: fullAdmin})
	s.True(dErrors.HasCode(err, dErrors.CodeProvisioning))
	s.NotContains(s.logs.String(), "organization_rollback_failed")
}

func (s *ProvisionerSuite) TestAuditEvents() {
	publisher := mocks.NewMockAuditPublisher(s.ctrl)
	svc, err := New(s.tenants, s.users, namespace.NewMemoryBinder(), WithAuditPublisher(publisher))
	s.Require().NoError(err)

	var actions []audit.Action
	publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Times(2).Do(func(_ context.Context, e audit.Event) {
		actions = append(actions, e.Action)
	})
	s.tenants.EXPECT().FindBySchemaName(gomock.Any(), "acme").Return(nil, sentinel.ErrNotFound)
	s.tenants.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	s.users.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("boom"))
	s.tenants.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)

	_, _ = svc.Create(context.Background(), CreateCommand{Name: "Acme", SchemaName: "acme", Admin: fullAdmin})
	s.Equal([]audit.Action{audit.ActionOrganizationCreated, audit.ActionOrganizationRolledBack}, actions)
}

// failingUsers fails every create, leaving memory tenant state to inspect.
type failingUsers struct{ calls atomic.Int32 }

func (f *failingUsers) Create(context.Context, *models.User) error {
	f.calls.Add(1)
	return errors.New("constraint violated")
}

func TestRollbackLeavesNoOrganizationBehind(t *testing.T) {
	tenants := tenantstore.NewInMemory()
	users := &failingUsers{}
	svc, err := New(tenants, users, namespace.NewMemoryBinder())
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Create(context.Background(), CreateCommand{Name: "Acme", SchemaName: "acme", Admin: fullAdmin})
	if !dErrors.HasCode(err, dErrors.CodeProvisioning) {
		t.Fatalf("expected provisioning error, got %v", err)
	}
	if _, err := tenants.FindBySchemaName(context.Background(), "acme"); !errors.Is(err, sentinel.ErrNotFound) {
		t.Fatalf("expected tenant to be rolled back, got %v", err)
	}
	if users.calls.Load() != 1 {
		t.Fatalf("expected one admin create attempt, got %d", users.calls.Load())
	}
}

func TestConcurrentCreatesOfSameSchema(t *testing.T) {
	tenants := tenantstore.NewInMemory()
	users := userstore.NewInMemory()
	svc, err := New(tenants, users, namespace.NewMemoryBinder())
	if err != nil {
		t.Fatal(err)
	}

	res := testutil.RunConcurrent(8, func(int) error {
		_, err := svc.Create(context.Background(), CreateCommand{Name: "Acme", SchemaName: "acme"})
		return err
	})
	if len(res.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if res.Successes != 1 || res.Conflicts != 7 {
		t.Fatalf("expected 1 success and 7 conflicts, got %d and %d", res.Successes, res.Conflicts)
	}
}
