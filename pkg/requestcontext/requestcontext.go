// Package requestcontext carries request-scoped values (request id, client
// metadata, authenticated user, resolved tenant) through context.Context.
package requestcontext

import (
	"context"
	"time"

	id "tenantgate/pkg/domain"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	clientIPKey
	userAgentKey
	userIDKey
	tenantKey
	nowKey
)

// ResolutionSource records where a request's tenant came from.
type ResolutionSource string

const (
	SourceNone   ResolutionSource = "none"
	SourceToken  ResolutionSource = "token"
	SourceHeader ResolutionSource = "header"
)

// Tenant is the per-request tenant context. It is never shared across requests.
type Tenant struct {
	ID         id.TenantID
	Name       string
	SchemaName string
	Source     ResolutionSource
	Public     bool
}

// Resolved reports whether a tenant was attached to the request.
func (t Tenant) Resolved() bool {
	return !t.ID.IsNil()
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey, clientIP)
	return context.WithValue(ctx, userAgentKey, userAgent)
}

func ClientIP(ctx context.Context) string {
	v, _ := ctx.Value(clientIPKey).(string)
	return v
}

func UserAgent(ctx context.Context) string {
	v, _ := ctx.Value(userAgentKey).(string)
	return v
}

func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated user, or the nil ID when unauthenticated.
func UserID(ctx context.Context) id.UserID {
	v, _ := ctx.Value(userIDKey).(id.UserID)
	return v
}

func WithTenant(ctx context.Context, t Tenant) context.Context {
	return context.WithValue(ctx, tenantKey, t)
}

// TenantFrom returns the request's tenant context. The zero value has source none.
func TenantFrom(ctx context.Context) Tenant {
	v, ok := ctx.Value(tenantKey).(Tenant)
	if !ok {
		return Tenant{Source: SourceNone}
	}
	return v
}

// WithNow pins the clock for a request so every token issued while serving
// it shares one issued-at instant.
func WithNow(ctx context.Context, now time.Time) context.Context {
	return context.WithValue(ctx, nowKey, now)
}

// Now returns the pinned time if present, else the wall clock.
func Now(ctx context.Context) time.Time {
	if v, ok := ctx.Value(nowKey).(time.Time); ok {
		return v
	}
	return time.Now()
}
