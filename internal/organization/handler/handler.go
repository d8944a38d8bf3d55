package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tenantgate/internal/organization/service"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/httputil"
	"tenantgate/pkg/requestcontext"
)

// Service provisions organizations. Returns domain objects, not DTOs.
type Service interface {
	Create(ctx context.Context, cmd service.CreateCommand) (*service.Result, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/api/organizations/create/", h.HandleCreate)
}

// HandleCreate provisions an organization and optionally its administrator.
// A duplicate schema answers 400 rather than the usual 409.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateOrganizationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	h.logger.InfoContext(ctx, "organization creation requested",
		"org_name", req.Name,
		"schema_name", req.SchemaName,
		"admin_present", req.Admin != nil,
		"request_id", requestID,
	)

	res, err := h.service.Create(ctx, req.toCommand())
	if err != nil {
		status := httputil.StatusFor(err)
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			status = http.StatusBadRequest
		}
		if status >= http.StatusInternalServerError {
			h.logger.ErrorContext(ctx, "create organization failed",
				"error", err,
				"schema_name", req.SchemaName,
				"request_id", requestID,
			)
		} else {
			h.logger.WarnContext(ctx, "create organization rejected",
				"error", err,
				"schema_name", req.SchemaName,
				"request_id", requestID,
			)
		}
		httputil.WriteErrorStatus(w, status, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toResponse(res))
}
