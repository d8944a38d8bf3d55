// Package resolver attaches the tenant to every protected request before
// handlers run and binds the data layer to that tenant's namespace.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"tenantgate/internal/tenant/models"
	"tenantgate/internal/tenant/namespace"
	"tenantgate/internal/token"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/httputil"
	"tenantgate/pkg/platform/middleware/auth"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/platform/tracer"
	"tenantgate/pkg/requestcontext"
)

// AliasHeader is accepted alongside the configured tenant header.
const AliasHeader = "X-Org"

const (
	msgHeaderRequired = "X-Org-Id header is required for tenant-specific requests"
	msgInvalidTenant  = "Invalid tenant identifier"
	msgInvalidToken   = "Invalid or expired token"
	msgInternal       = "Internal server error"
)

// TokenVerifier validates access tokens.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, raw string) (*token.Claims, error)
}

// TenantLookup loads tenant records.
type TenantLookup interface {
	FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
}

// Resolver is the tenant-resolution middleware.
type Resolver struct {
	policy   Policy
	header   string
	tokens   TokenVerifier
	tenants  TenantLookup
	binder   namespace.Binder
	logger   *slog.Logger
	metrics  *Metrics
	tracer   tracer.Tracer
	required string
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

func WithTracer(t tracer.Tracer) Option {
	return func(r *Resolver) { r.tracer = t }
}

// WithHeader overrides the tenant header name.
func WithHeader(name string) Option {
	return func(r *Resolver) {
		if name != "" {
			r.header = name
		}
	}
}

func New(policy Policy, tokens TokenVerifier, tenants TenantLookup, binder namespace.Binder, opts ...Option) *Resolver {
	r := &Resolver{
		policy:  policy,
		header:  "X-Org-Id",
		tokens:  tokens,
		tenants: tenants,
		binder:  binder,
		logger:  slog.Default(),
		tracer:  tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.required = strings.Replace(msgHeaderRequired, "X-Org-Id", r.header, 1)
	return r
}

// rejection is a terminal resolution failure.
type rejection struct {
	status  int
	outcome string
	message string
	cause   error
}

func (e *rejection) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func reject(status int, outcome, message string, cause error) *rejection {
	return &rejection{status: status, outcome: outcome, message: message, cause: cause}
}

// Middleware resolves the tenant, binds its namespace for the rest of the
// request and releases the binding when the handler returns.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		// Every request starts without a tenant, whatever the parent context held.
		ctx := requestcontext.WithTenant(req.Context(), requestcontext.Tenant{Source: requestcontext.SourceNone})

		if r.policy.IsPublic(req.URL.Path) {
			r.metrics.observe(outcomePublic)
			ctx = requestcontext.WithTenant(ctx, requestcontext.Tenant{Source: requestcontext.SourceNone, Public: true})
			next.ServeHTTP(w, req.WithContext(ctx))
			return
		}

		ctx, span := r.tracer.Start(ctx, "tenant.resolve", tracer.String("http.target", req.URL.Path))
		tenant, err := r.resolve(ctx, req)
		if err != nil {
			span.End(err)
			r.writeRejection(ctx, w, err)
			return
		}
		span.SetAttributes(
			tracer.String("tenant.source", string(tenant.Source)),
			tracer.String("tenant.schema", tenant.SchemaName),
		)

		bound, release, err := r.binder.Bind(ctx, tenant.SchemaName)
		if err != nil {
			span.End(err)
			r.writeRejection(ctx, w, reject(http.StatusInternalServerError, outcomeError, msgInternal, err))
			return
		}
		defer release()
		span.End(nil)

		r.metrics.observe(string(tenant.Source))
		next.ServeHTTP(w, req.WithContext(requestcontext.WithTenant(bound, tenant)))
	})
}

func (r *Resolver) resolve(ctx context.Context, req *http.Request) (requestcontext.Tenant, error) {
	eligible := r.policy.IsHeaderEligible(req.URL.Path)

	raw, source, err := r.candidate(ctx, req, eligible)
	if err != nil {
		return requestcontext.Tenant{}, err
	}

	tenantID, err := id.ParseTenantID(strings.TrimSpace(raw))
	if err != nil {
		return requestcontext.Tenant{}, reject(http.StatusBadRequest, outcomeRejected400, msgInvalidTenant, err)
	}

	record, err := r.tenants.FindByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			msg := fmt.Sprintf("Organization with id %q not found", tenantID.String())
			return requestcontext.Tenant{}, reject(http.StatusNotFound, outcomeRejected404, msg, nil)
		}
		return requestcontext.Tenant{}, reject(http.StatusInternalServerError, outcomeError, msgInternal, err)
	}

	return requestcontext.Tenant{
		ID:         record.ID,
		Name:       record.Name,
		SchemaName: record.SchemaName,
		Source:     source,
	}, nil
}

// candidate picks the raw tenant identifier from the token claim or, on
// header-eligible routes without a usable token, from the tenant header.
func (r *Resolver) candidate(ctx context.Context, req *http.Request, eligible bool) (string, requestcontext.ResolutionSource, error) {
	if bearer, ok := auth.BearerToken(req); ok {
		claims, err := r.tokens.VerifyAccessToken(ctx, bearer)
		switch {
		case err == nil && claims.OrgID != "":
			return claims.OrgID, requestcontext.SourceToken, nil
		case err != nil && !eligible:
			return "", "", reject(http.StatusUnauthorized, outcomeRejected401, msgInvalidToken, err)
		case err != nil:
			r.logger.DebugContext(ctx, "ignoring invalid token on header-eligible route",
				"path", req.URL.Path,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}

	if !eligible {
		return "", "", reject(http.StatusBadRequest, outcomeRejected400, r.required, nil)
	}
	value := req.Header.Get(r.header)
	if value == "" {
		value = req.Header.Get(AliasHeader)
	}
	if value == "" {
		return "", "", reject(http.StatusBadRequest, outcomeRejected400, r.required, nil)
	}
	return value, requestcontext.SourceHeader, nil
}

func (r *Resolver) writeRejection(ctx context.Context, w http.ResponseWriter, err error) {
	var rej *rejection
	if !errors.As(err, &rej) {
		rej = reject(http.StatusInternalServerError, outcomeError, msgInternal, err)
	}
	r.metrics.observe(rej.outcome)

	level := slog.LevelWarn
	if rej.status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	r.logger.Log(ctx, level, "tenant resolution rejected",
		"status", rej.status,
		"reason", rej.Error(),
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSON(w, rej.status, httputil.ErrorResponse{Error: rej.message})
}
