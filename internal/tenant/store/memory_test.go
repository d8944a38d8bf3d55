package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenantgate/internal/tenant/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
)

func newTenant(schema string) *models.Tenant {
	return &models.Tenant{
		ID:         id.NewTenantID(),
		Name:       "Tenant " + schema,
		SchemaName: schema,
		CreatedAt:  time.Now(),
	}
}

func TestInMemoryCreateAndFind(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	tenant := newTenant("acme")

	require.NoError(t, store.Create(ctx, tenant))

	byID, err := store.FindByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme", byID.SchemaName)

	bySchema, err := store.FindBySchemaName(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, bySchema.ID)
}

func TestInMemoryDuplicateSchema(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newTenant("acme")))

	err := store.Create(ctx, newTenant("acme"))
	assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
}

func TestInMemorySchemaLookupIsCaseSensitive(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newTenant("acme")))

	_, err := store.FindBySchemaName(ctx, "ACME")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryDeleteRunsDropHooks(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	tenant := newTenant("acme")
	require.NoError(t, store.Create(ctx, tenant))

	var dropped []string
	store.OnDrop(func(schema string) { dropped = append(dropped, schema) })

	require.NoError(t, store.Delete(ctx, tenant))
	assert.Equal(t, []string{"acme"}, dropped)

	_, err := store.FindBySchemaName(ctx, "acme")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, tenant), sentinel.ErrNotFound)
}

func TestInMemoryReturnsCopies(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	tenant := newTenant("acme")
	require.NoError(t, store.Create(ctx, tenant))

	found, err := store.FindByID(ctx, tenant.ID)
	require.NoError(t, err)
	found.Name = "mutated"

	again, err := store.FindByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, tenant.Name, again.Name)
}
