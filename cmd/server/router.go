package main

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tenantgate/pkg/platform/middleware/admin"
	authmw "tenantgate/pkg/platform/middleware/auth"
	"tenantgate/pkg/platform/middleware/request"
	"tenantgate/pkg/platform/middleware/requesttime"
)

// router applies the middleware chain in the order tenant resolution needs:
// request id and client metadata first, the resolver before anything that
// logs or traces the tenant.
func (a *app) router(log *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(log))
	r.Use(a.metadata.Handler)
	r.Use(requesttime.Middleware)
	r.Use(request.LatencyMiddleware(request.NewMetrics()))
	r.Use(a.resolver.Middleware)
	r.Use(request.Tracing(a.tracer))
	r.Use(request.Logger(log))

	a.health.Register(r)
	r.Handle("/metrics", promhttp.Handler())
	a.jwks.Register(r)
	a.auth.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(bearerVerifier{tokens: a.tokens}, log))
		a.auth.RegisterAuthenticated(r)
	})
	r.Group(func(r chi.Router) {
		r.Use(admin.RequireProvisioningToken(a.cfg.ProvisioningToken, log))
		a.orgs.Register(r)
	})
	return r
}
