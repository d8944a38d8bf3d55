package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "tenantgate/pkg/domain-errors"
)

type plainRequest struct {
	Name string `json:"name"`
}

type preparedRequest struct {
	Name string `json:"name"`
}

func (r *preparedRequest) Normalize() { r.Name = strings.TrimSpace(r.Name) }

func (r *preparedRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type tokenRequest struct {
	Refresh string `json:"refresh"`
}

func (r *tokenRequest) DecodeFailureMessage() string { return "Refresh token is required" }

func (r *tokenRequest) Validate() error {
	if r.Refresh == "" {
		return dErrors.New(dErrors.CodeBadRequest, "Refresh token is required")
	}
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestDecodeJSON(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("decodes valid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"acme"}`))
		rec := httptest.NewRecorder()

		got, ok := DecodeJSON[plainRequest](rec, req, logger, ctx, "req-1")
		require.True(t, ok)
		assert.Equal(t, "acme", got.Name)
	})

	t.Run("malformed body answers 400 with default message", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{bad`))
		rec := httptest.NewRecorder()

		_, ok := DecodeJSON[plainRequest](rec, req, logger, ctx, "req-1")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid request body", decodeBody(t, rec).Error)
	})

	t.Run("request type can override decode failure message", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"refresh":42}`))
		rec := httptest.NewRecorder()

		_, ok := DecodeJSON[tokenRequest](rec, req, logger, ctx, "req-1")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Refresh token is required", decodeBody(t, rec).Error)
	})
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("normalizes before validating", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"  acme  "}`))
		rec := httptest.NewRecorder()

		got, ok := DecodeAndPrepare[preparedRequest](rec, req, logger, ctx, "req-1")
		require.True(t, ok)
		assert.Equal(t, "acme", got.Name)
	})

	t.Run("plain validation error becomes 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"   "}`))
		rec := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[preparedRequest](rec, req, logger, ctx, "req-1")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "name is required", decodeBody(t, rec).Error)
	})

	t.Run("domain validation error keeps its message", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{}`))
		rec := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[tokenRequest](rec, req, logger, ctx, "req-1")
		assert.False(t, ok)
		assert.Equal(t, "Refresh token is required", decodeBody(t, rec).Error)
	})
}

func TestWriteErrorHidesInternalText(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, dErrors.Wrap(errors.New("pq: relation missing"), dErrors.CodeInternal, "lookup failed"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decodeBody(t, rec).Error)

	rec = httptest.NewRecorder()
	WriteError(rec, errors.New("raw driver error"))
	assert.Equal(t, "Internal server error", decodeBody(t, rec).Error)
}

func TestDomainCodeToHTTPStatus(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeNotFound:       http.StatusNotFound,
		dErrors.CodeValidation:     http.StatusBadRequest,
		dErrors.CodeUnauthorized:   http.StatusUnauthorized,
		dErrors.CodeConflict:       http.StatusConflict,
		dErrors.CodeKeyUnavailable: http.StatusInternalServerError,
		dErrors.CodeProvisioning:   http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, DomainCodeToHTTPStatus(code), code)
	}
}
