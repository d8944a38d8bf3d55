// Package requesttime pins one "now" per request so every token minted while
// serving it shares the same issued-at instant.
package requesttime

import (
	"net/http"
	"time"

	"tenantgate/pkg/requestcontext"
)

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithNow(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
