// Package handler exposes the login, refresh, logout, verify-token and user
// registration endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tenantgate/internal/auth/service"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/httputil"
	"tenantgate/pkg/requestcontext"
)

// Service is the auth surface the handler drives.
type Service interface {
	Login(ctx context.Context, cmd service.LoginCommand) (*service.Result, error)
	Refresh(ctx context.Context, refresh string) (*service.Result, error)
	Logout(ctx context.Context, refresh string) error
	VerifyToken(ctx context.Context, raw string) (*service.Verification, error)
	Register(ctx context.Context, cmd service.RegisterCommand) (*service.Result, error)
}

type Handler struct {
	auth   Service
	logger *slog.Logger
}

func New(auth Service, logger *slog.Logger) *Handler {
	return &Handler{auth: auth, logger: logger}
}

// Register mounts routes reachable before the caller holds an access token.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/auth/login/", h.HandleLogin)
	r.Post("/api/auth/refresh/", h.HandleRefresh)
	r.Post("/api/auth/verify-token/", h.HandleVerifyToken)
	r.Post("/api/users/create/", h.HandleRegister)
}

// RegisterAuthenticated mounts routes that require a bearer access token.
// The parent router applies the authentication middleware.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/api/auth/logout/", h.HandleLogout)
}

// HandleLogin implements POST /api/auth/login/.
//
// Input: { "username": "alice", "password": "..." }
// Output: { "access": "...", "refresh": "...", "user": {id, username, email, org_id} }
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.auth.Login(ctx, service.LoginCommand{Username: req.Username, Password: req.Password})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLoginResponse(res, requestcontext.TenantFrom(ctx)))
}

// HandleRefresh implements POST /api/auth/refresh/.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RefreshRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.auth.Refresh(ctx, req.Refresh)
	if err != nil {
		h.logIfInternal(ctx, "refresh failed", err, requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RefreshResponse{Access: res.Pair.Access, Refresh: res.Pair.Refresh})
}

// HandleLogout implements POST /api/auth/logout/.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if _, err := httputil.RequireUserID(ctx, h.logger); err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[LogoutRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.auth.Logout(ctx, req.Refresh); err != nil {
		h.logIfInternal(ctx, "logout failed", err, requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, LogoutResponse{Message: "Successfully logged out"})
}

// HandleVerifyToken implements POST /api/auth/verify-token/. Rejections
// answer {"valid": false} without a reason.
func (h *Handler) HandleVerifyToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	v, err := h.auth.VerifyToken(ctx, req.Token)
	switch {
	case err == nil:
		httputil.WriteJSON(w, http.StatusOK, toVerifyResponse(v))
	case dErrors.HasCode(err, dErrors.CodeUnauthorized):
		httputil.WriteJSON(w, http.StatusUnauthorized, VerifyResponse{Valid: false})
	case dErrors.HasCode(err, dErrors.CodeNotFound):
		httputil.WriteJSON(w, http.StatusNotFound, VerifyResponse{Valid: false})
	default:
		h.logIfInternal(ctx, "verify token failed", err, requestID)
		httputil.WriteError(w, err)
	}
}

// HandleRegister implements POST /api/users/create/ for the resolved tenant.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.auth.Register(ctx, service.RegisterCommand{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.logIfInternal(ctx, "user registration failed", err, requestID)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "user registered",
		"user_id", res.User.ID.String(),
		"request_id", requestID,
	)
	httputil.WriteJSON(w, http.StatusCreated, toRegisterResponse(res, requestcontext.TenantFrom(ctx)))
}

func (h *Handler) logIfInternal(ctx context.Context, msg string, err error, requestID string) {
	if httputil.StatusFor(err) < http.StatusInternalServerError {
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"error", err,
		"request_id", requestID,
	)
}
