package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "tenantgate/pkg/domain"
)

func TestTenantFromDefaultsToNone(t *testing.T) {
	got := TenantFrom(context.Background())
	assert.Equal(t, SourceNone, got.Source)
	assert.False(t, got.Resolved())
	assert.False(t, got.Public)
}

func TestTenantIsScopedToDerivedContext(t *testing.T) {
	base := context.Background()
	tenantID := id.NewTenantID()
	scoped := WithTenant(base, Tenant{ID: tenantID, SchemaName: "acme", Source: SourceHeader})

	assert.True(t, TenantFrom(scoped).Resolved())
	assert.Equal(t, "acme", TenantFrom(scoped).SchemaName)
	assert.False(t, TenantFrom(base).Resolved(), "parent context must not observe the tenant")
}

func TestNowHonorsPinnedClock(t *testing.T) {
	pinned := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, pinned, Now(WithNow(context.Background(), pinned)))
	assert.WithinDuration(t, time.Now(), Now(context.Background()), time.Second)
}

func TestClientMetadata(t *testing.T) {
	ctx := WithClientMetadata(WithRequestID(context.Background(), "req-1"), "10.0.0.1", "curl/8")
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "10.0.0.1", ClientIP(ctx))
	assert.Equal(t, "curl/8", UserAgent(ctx))
	assert.True(t, UserID(ctx).IsNil())
}
