package store

import (
	"context"
	"fmt"
	"sync"

	"tenantgate/internal/tenant/namespace"
	"tenantgate/internal/user/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
)

// InMemory keeps one user table per schema, selected by the namespace bound
// to the request context.
type InMemory struct {
	mu      sync.RWMutex
	schemas map[string]*table
}

type table struct {
	byID       map[id.UserID]*models.User
	byUsername map[string]id.UserID
	byEmail    map[string]id.UserID
}

func NewInMemory() *InMemory {
	return &InMemory{schemas: make(map[string]*table)}
}

// DropSchema forgets every user of schemaName.
func (s *InMemory) DropSchema(schemaName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.schemas, schemaName)
}

func (s *InMemory) Create(ctx context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("user is required")
	}
	schema := namespace.SchemaFrom(ctx)
	if schema == namespace.DefaultSchema {
		return fmt.Errorf("create user: no tenant namespace bound")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.schemas[schema]
	if !ok {
		t = &table{
			byID:       make(map[id.UserID]*models.User),
			byUsername: make(map[string]id.UserID),
			byEmail:    make(map[string]id.UserID),
		}
		s.schemas[schema] = t
	}
	if _, taken := t.byUsername[user.Username]; taken {
		return fmt.Errorf("%w: %w", ErrDuplicateUsername, sentinel.ErrAlreadyUsed)
	}
	if _, taken := t.byEmail[user.Email]; taken {
		return fmt.Errorf("%w: %w", ErrDuplicateEmail, sentinel.ErrAlreadyUsed)
	}
	clone := *user
	t.byID[user.ID] = &clone
	t.byUsername[user.Username] = user.ID
	t.byEmail[user.Email] = user.ID
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.schemas[namespace.SchemaFrom(ctx)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if u, ok := t.byID[userID]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.schemas[namespace.SchemaFrom(ctx)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if userID, ok := t.byUsername[username]; ok {
		clone := *t.byID[userID]
		return &clone, nil
	}
	return nil, sentinel.ErrNotFound
}
