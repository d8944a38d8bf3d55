package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"tenantgate/internal/organization/service"
	"tenantgate/internal/tenant/namespace"
	tenantstore "tenantgate/internal/tenant/store"
	"tenantgate/internal/user/models"
	userstore "tenantgate/internal/user/store"
	adminmw "tenantgate/pkg/platform/middleware/admin"
)

type brokenUsers struct{}

func (brokenUsers) Create(context.Context, *models.User) error { return errors.New("insert failed") }

type HandlerSuite struct {
	suite.Suite
	tenants *tenantstore.InMemory
	users   *userstore.InMemory
	router  http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.tenants = tenantstore.NewInMemory()
	s.users = userstore.NewInMemory()
	s.tenants.OnDrop(s.users.DropSchema)
	s.router = s.build(s.users, "")
}

func (s *HandlerSuite) build(users service.UserStore, token string) http.Handler {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc, err := service.New(s.tenants, users, namespace.NewMemoryBinder(), service.WithLogger(logger))
	s.Require().NoError(err)
	r := chi.NewRouter()
	r.Use(adminmw.RequireProvisioningToken(token, logger))
	New(svc, logger).Register(r)
	return r
}

func (s *HandlerSuite) post(router http.Handler, body string, header ...string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(http.MethodPost, "/api/organizations/create/", bytes.NewBufferString(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var decoded map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	return rec, decoded
}

func (s *HandlerSuite) TestCreateWithoutAdmin() {
	rec, body := s.post(s.router, `{"name":"Acme","schema_name":"acme_1"}`)
	s.Equal(http.StatusCreated, rec.Code)
	org := body["organization"].(map[string]any)
	s.Equal("Acme", org["name"])
	s.Equal("acme_1", org["schema_name"])
	s.NotEmpty(org["id"])
	s.NotContains(body, "admin_user")
}

func (s *HandlerSuite) TestCreateWithAdmin() {
	rec, body := s.post(s.router, `{"name":"Acme","schema_name":"acme","admin":{"username":"root","email":"root@acme.test","password":"pw-123456"}}`)
	s.Equal(http.StatusCreated, rec.Code)
	org := body["organization"].(map[string]any)
	admin := body["admin_user"].(map[string]any)
	s.Equal("root", admin["username"])
	s.Equal(org["id"], admin["org_id"])

	ctx, release, err := namespace.NewMemoryBinder().Bind(context.Background(), "acme")
	s.Require().NoError(err)
	defer release()
	stored, err := s.users.FindByUsername(ctx, "root")
	s.Require().NoError(err)
	s.True(stored.HasRole(models.RoleAdmin))
}

func (s *HandlerSuite) TestUppercaseSchemaRejected() {
	rec, body := s.post(s.router, `{"name":"Acme","schema_name":"PUBLIC"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("schema_name must be lowercase, alphanumeric, and underscores only.", body["error"])
}

func (s *HandlerSuite) TestDuplicateSchemaIs400() {
	rec, _ := s.post(s.router, `{"name":"Acme","schema_name":"acme"}`)
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec, body := s.post(s.router, `{"name":"Other","schema_name":"acme"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Organization schema 'acme' already exists", body["error"])
}

func (s *HandlerSuite) TestAdminFailureRollsBack() {
	router := s.build(brokenUsers{}, "")
	rec, body := s.post(router, `{"name":"Acme","schema_name":"acme","admin":{"username":"root","email":"root@acme.test","password":"pw-123456"}}`)
	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Equal("Organization provisioning failed and has been rolled back.", body["error"])

	rec, _ = s.post(s.router, `{"name":"Acme","schema_name":"acme"}`)
	s.Equal(http.StatusCreated, rec.Code, "schema should be free again after rollback")
}

func (s *HandlerSuite) TestProvisioningTokenRequiredWhenConfigured() {
	router := s.build(s.users, "operator-token")

	rec, _ := s.post(router, `{"name":"Acme","schema_name":"acme"}`)
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec, _ = s.post(router, `{"name":"Acme","schema_name":"acme"}`, adminmw.HeaderProvisioningToken, "operator-token")
	s.Equal(http.StatusCreated, rec.Code)
}
