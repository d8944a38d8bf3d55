package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ProvisioningTokenSuite struct {
	suite.Suite
	logger *slog.Logger
}

func TestProvisioningTokenSuite(t *testing.T) {
	suite.Run(t, new(ProvisioningTokenSuite))
}

func (s *ProvisioningTokenSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *ProvisioningTokenSuite) serve(expected, presented string) (int, bool) {
	called := false
	handler := RequireProvisioningToken(expected, s.logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusCreated)
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/organizations/create/", nil)
	if presented != "" {
		req.Header.Set(HeaderProvisioningToken, presented)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code, called
}

func (s *ProvisioningTokenSuite) TestOpenWhenNoTokenConfigured() {
	code, called := s.serve("", "")
	s.True(called)
	s.Equal(http.StatusCreated, code)
}

func (s *ProvisioningTokenSuite) TestCorrectTokenPasses() {
	code, called := s.serve("ops-secret", "ops-secret")
	s.True(called)
	s.Equal(http.StatusCreated, code)
}

func (s *ProvisioningTokenSuite) TestWrongOrMissingTokenNeverReachesHandler() {
	for _, presented := range []string{"", "ops-secre", "ops-secret-2"} {
		code, called := s.serve("ops-secret", presented)
		s.False(called, presented)
		s.Equal(http.StatusUnauthorized, code)
	}
}
