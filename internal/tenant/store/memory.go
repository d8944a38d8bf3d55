package store

import (
	"context"
	"fmt"
	"sync"

	"tenantgate/internal/tenant/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
)

// InMemory stores tenants in memory for the demo environment.
type InMemory struct {
	mu        sync.RWMutex
	tenants   map[id.TenantID]*models.Tenant
	schemaIdx map[string]id.TenantID
	dropHooks []func(schemaName string)
}

// NewInMemory creates an in-memory tenant store.
func NewInMemory() *InMemory {
	return &InMemory{
		tenants:   make(map[id.TenantID]*models.Tenant),
		schemaIdx: make(map[string]id.TenantID),
	}
}

// OnDrop registers a callback invoked with the schema name of every deleted
// tenant, so schema-scoped memory stores can drop the tenant's data.
func (s *InMemory) OnDrop(fn func(schemaName string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropHooks = append(s.dropHooks, fn)
}

// Create stores the tenant if its schema name is free.
func (s *InMemory) Create(_ context.Context, t *models.Tenant) error {
	if t == nil {
		return fmt.Errorf("tenant is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.schemaIdx[t.SchemaName]; exists {
		return fmt.Errorf("schema name must be unique: %w", sentinel.ErrAlreadyUsed)
	}
	clone := *t
	s.tenants[t.ID] = &clone
	s.schemaIdx[t.SchemaName] = t.ID
	return nil
}

// Delete removes the tenant and runs the drop hooks for its schema.
func (s *InMemory) Delete(_ context.Context, t *models.Tenant) error {
	if t == nil {
		return fmt.Errorf("tenant is required")
	}
	s.mu.Lock()
	existing, ok := s.tenants[t.ID]
	if !ok {
		s.mu.Unlock()
		return sentinel.ErrNotFound
	}
	delete(s.tenants, t.ID)
	delete(s.schemaIdx, existing.SchemaName)
	hooks := append([]func(string){}, s.dropHooks...)
	s.mu.Unlock()

	for _, hook := range hooks {
		hook(existing.SchemaName)
	}
	return nil
}

// FindByID retrieves a tenant by its UUID.
func (s *InMemory) FindByID(_ context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tenants[tenantID]; ok {
		clone := *t
		return &clone, nil
	}
	return nil, sentinel.ErrNotFound
}

// FindBySchemaName retrieves a tenant by its exact schema name.
func (s *InMemory) FindBySchemaName(_ context.Context, schemaName string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if tenantID, ok := s.schemaIdx[schemaName]; ok {
		clone := *s.tenants[tenantID]
		return &clone, nil
	}
	return nil, sentinel.ErrNotFound
}
