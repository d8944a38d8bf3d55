package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"tenantgate/pkg/platform/httputil"
	"tenantgate/pkg/requestcontext"
)

// HeaderProvisioningToken carries the operator token for provisioning endpoints.
const HeaderProvisioningToken = "X-Provisioning-Token"

// RequireProvisioningToken guards operator-only routes such as organization
// creation. An empty expected token leaves the route open.
func RequireProvisioningToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if expectedToken == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(HeaderProvisioningToken)
			if subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "provisioning token mismatch",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "Provisioning token required"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
