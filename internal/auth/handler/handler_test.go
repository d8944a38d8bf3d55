package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"tenantgate/internal/auth/service"
	"tenantgate/internal/token"
	"tenantgate/internal/user/models"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/requestcontext"
)

type stubService struct {
	login    func(service.LoginCommand) (*service.Result, error)
	refresh  func(string) (*service.Result, error)
	logout   func(string) error
	verify   func(string) (*service.Verification, error)
	register func(service.RegisterCommand) (*service.Result, error)
}

func (s *stubService) Login(_ context.Context, cmd service.LoginCommand) (*service.Result, error) {
	return s.login(cmd)
}

func (s *stubService) Refresh(_ context.Context, refresh string) (*service.Result, error) {
	return s.refresh(refresh)
}

func (s *stubService) Logout(_ context.Context, refresh string) error {
	return s.logout(refresh)
}

func (s *stubService) VerifyToken(_ context.Context, raw string) (*service.Verification, error) {
	return s.verify(raw)
}

func (s *stubService) Register(_ context.Context, cmd service.RegisterCommand) (*service.Result, error) {
	return s.register(cmd)
}

type HandlerSuite struct {
	suite.Suite
	svc    *stubService
	router chi.Router
	tenant requestcontext.Tenant
	user   *models.User
	caller id.UserID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.svc = &stubService{}
	h := New(s.svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.tenant = requestcontext.Tenant{ID: id.NewTenantID(), Name: "Acme", SchemaName: "acme", Source: requestcontext.SourceHeader}
	s.user = &models.User{ID: id.NewUserID(), Username: "alice", Email: "alice@acme.test", Roles: []string{"admin"}}
	s.caller = s.user.ID

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := requestcontext.WithTenant(req.Context(), s.tenant)
			if !s.caller.IsNil() {
				ctx = requestcontext.WithUserID(ctx, s.caller)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	h.Register(r)
	h.RegisterAuthenticated(r)
	s.router = r
}

func (s *HandlerSuite) post(path, body string) (*httptest.ResponseRecorder, map[string]any) {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body)))
	var decoded map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	return rec, decoded
}

func (s *HandlerSuite) result(access, refresh string) *service.Result {
	return &service.Result{Pair: &token.Pair{Access: access, Refresh: refresh}, User: s.user}
}

func (s *HandlerSuite) TestLogin() {
	s.Run("success returns tokens and the user", func() {
		s.svc.login = func(cmd service.LoginCommand) (*service.Result, error) {
			s.Equal("alice", cmd.Username)
			return s.result("a", "r"), nil
		}
		rec, body := s.post("/api/auth/login/", `{"username":" alice ","password":"pw"}`)
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("a", body["access"])
		s.Equal("r", body["refresh"])
		user := body["user"].(map[string]any)
		s.Equal(s.user.ID.String(), user["id"])
		s.Equal(s.tenant.ID.String(), user["org_id"])
	})

	s.Run("invalid credentials", func() {
		s.svc.login = func(service.LoginCommand) (*service.Result, error) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "Invalid credentials")
		}
		rec, body := s.post("/api/auth/login/", `{"username":"alice","password":"bad"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("Invalid credentials", body["error"])
	})

	s.Run("missing password", func() {
		rec, body := s.post("/api/auth/login/", `{"username":"alice"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("password is required", body["error"])
	})
}

func (s *HandlerSuite) TestRefresh() {
	s.Run("unrotated refresh token is echoed unchanged", func() {
		s.svc.refresh = func(presented string) (*service.Result, error) { return s.result("a2", presented), nil }
		rec, body := s.post("/api/auth/refresh/", `{"refresh":"presented-refresh"}`)
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("a2", body["access"])
		s.Equal("presented-refresh", body["refresh"])
	})

	s.Run("rotated refresh token is returned", func() {
		s.svc.refresh = func(string) (*service.Result, error) { return s.result("a2", "r2"), nil }
		_, body := s.post("/api/auth/refresh/", `{"refresh":"r1"}`)
		s.Equal("r2", body["refresh"])
	})

	for name, payload := range map[string]string{
		"missing":    `{}`,
		"blank":      `{"refresh":"  "}`,
		"non-string": `{"refresh":42}`,
		"no body":    ``,
	} {
		s.Run(name+" refresh is 400", func() {
			rec, body := s.post("/api/auth/refresh/", payload)
			s.Equal(http.StatusBadRequest, rec.Code)
			s.Equal("Refresh token is required", body["error"])
		})
	}

	s.Run("invalid refresh is 401", func() {
		s.svc.refresh = func(string) (*service.Result, error) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired refresh token")
		}
		rec, body := s.post("/api/auth/refresh/", `{"refresh":"bad"}`)
		s.Equal(http.StatusUnauthorized, rec.Code)
		s.Equal("Invalid or expired refresh token", body["error"])
	})

	s.Run("infrastructure failure hides detail", func() {
		s.svc.refresh = func(string) (*service.Result, error) {
			return nil, dErrors.New(dErrors.CodeInternal, "redis: connection refused")
		}
		rec, body := s.post("/api/auth/refresh/", `{"refresh":"r1"}`)
		s.Equal(http.StatusInternalServerError, rec.Code)
		s.Equal("Internal server error", body["error"])
	})
}

func (s *HandlerSuite) TestLogout() {
	s.Run("success", func() {
		s.svc.logout = func(refresh string) error {
			s.Equal("r1", refresh)
			return nil
		}
		rec, body := s.post("/api/auth/logout/", `{"refresh":"r1"}`)
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("Successfully logged out", body["message"])
	})

	s.Run("missing refresh", func() {
		rec, body := s.post("/api/auth/logout/", `{}`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("Refresh token is required", body["error"])
	})

	s.Run("invalid refresh", func() {
		s.svc.logout = func(string) error {
			return dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token")
		}
		rec, body := s.post("/api/auth/logout/", `{"refresh":"bad"}`)
		s.Equal(http.StatusUnauthorized, rec.Code)
		s.Equal("Invalid or expired token", body["error"])
	})

	s.Run("unauthenticated caller never reaches revocation", func() {
		s.caller = id.UserID{}
		s.svc.logout = func(string) error {
			s.Fail("logout must not run without an authenticated caller")
			return nil
		}
		rec, body := s.post("/api/auth/logout/", `{"refresh":"r1"}`)
		s.Equal(http.StatusUnauthorized, rec.Code)
		s.Equal("Authentication credentials were not provided", body["error"])
	})
}

func (s *HandlerSuite) TestVerifyToken() {
	s.Run("valid", func() {
		s.svc.verify = func(string) (*service.Verification, error) {
			return &service.Verification{Claims: &token.Claims{OrgID: s.tenant.ID.String()}, User: s.user}, nil
		}
		rec, body := s.post("/api/auth/verify-token/", `{"token":"a"}`)
		s.Equal(http.StatusOK, rec.Code)
		s.Equal(true, body["valid"])
		s.Equal(s.user.ID.String(), body["user_id"])
		s.Equal(s.tenant.ID.String(), body["org_id"])
		s.Equal([]any{"admin"}, body["roles"])
	})

	s.Run("invalid answers valid false", func() {
		s.svc.verify = func(string) (*service.Verification, error) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token")
		}
		rec, body := s.post("/api/auth/verify-token/", `{"token":"a"}`)
		s.Equal(http.StatusUnauthorized, rec.Code)
		s.Equal(map[string]any{"valid": false}, body)
	})

	s.Run("missing user answers valid false", func() {
		s.svc.verify = func(string) (*service.Verification, error) {
			return nil, dErrors.New(dErrors.CodeNotFound, "User not found")
		}
		rec, body := s.post("/api/auth/verify-token/", `{"token":"a"}`)
		s.Equal(http.StatusNotFound, rec.Code)
		s.Equal(map[string]any{"valid": false}, body)
	})

	s.Run("missing token", func() {
		rec, body := s.post("/api/auth/verify-token/", `{}`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("Token is required", body["error"])
	})
}

func (s *HandlerSuite) TestRegister() {
	s.Run("created", func() {
		s.svc.register = func(cmd service.RegisterCommand) (*service.Result, error) {
			s.Equal("alice@acme.test", cmd.Email)
			return s.result("a", "r"), nil
		}
		rec, body := s.post("/api/users/create/", `{"username":"alice","email":"alice@acme.test","password":"pw"}`)
		s.Equal(http.StatusCreated, rec.Code)
		s.Equal(s.user.ID.String(), body["user_id"])
		s.Equal(s.tenant.ID.String(), body["org_id"])
		s.Equal("a", body["access"])
	})

	s.Run("missing field", func() {
		rec, body := s.post("/api/users/create/", `{"username":"alice","password":"pw"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("Username, password and email are required", body["error"])
	})

	s.Run("malformed email", func() {
		rec, _ := s.post("/api/users/create/", `{"username":"alice","email":"nope","password":"pw"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("duplicate username", func() {
		s.svc.register = func(service.RegisterCommand) (*service.Result, error) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "Username already exists")
		}
		rec, body := s.post("/api/users/create/", `{"username":"alice","email":"alice@acme.test","password":"pw"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("Username already exists", body["error"])
	})
}
