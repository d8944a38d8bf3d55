package jwks

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/httputil"
	"tenantgate/pkg/requestcontext"
)

// Handler serves GET /api/auth/jwks.json.
type Handler struct {
	publisher *Publisher
	logger    *slog.Logger
}

func NewHandler(publisher *Publisher, logger *slog.Logger) *Handler {
	return &Handler{publisher: publisher, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/auth/jwks.json", h.HandleJWKS)
}

func (h *Handler) HandleJWKS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	set, err := h.publisher.Publish()
	if err != nil {
		h.logger.ErrorContext(ctx, "jwks unavailable",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeKeyUnavailable, "Signing keys unavailable"))
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	httputil.WriteJSON(w, http.StatusOK, set)
}
