// Package blacklist stores revoked refresh-token identifiers until the
// tokens would have expired anyway.
package blacklist

import (
	"context"
	"sync"
	"time"
)

// InMemory is a process-local blacklist for development and tests.
type InMemory struct {
	mu      sync.Mutex
	revoked map[string]time.Time // jti -> token expiry
	now     func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Add records jti until expiresAt. It reports false when jti was already listed.
func (b *InMemory) Add(_ context.Context, jti string, expiresAt time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if exp, ok := b.revoked[jti]; ok && b.now().Before(exp) {
		return false, nil
	}
	b.revoked[jti] = expiresAt
	return true, nil
}

func (b *InMemory) Contains(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	exp, ok := b.revoked[jti]
	if !ok {
		return false, nil
	}
	if !b.now().Before(exp) {
		delete(b.revoked, jti)
		return false, nil
	}
	return true, nil
}

// DeleteExpired drops entries whose tokens have expired.
func (b *InMemory) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	deleted := 0
	for jti, exp := range b.revoked {
		if !now.Before(exp) {
			delete(b.revoked, jti)
			deleted++
		}
	}
	return deleted, nil
}
