package blacklist

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemory(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	b := NewInMemory()
	b.now = func() time.Time { return now }

	listed, err := b.Contains(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, listed)

	added, err := b.Add(ctx, "jti-1", now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, added)

	added, err = b.Add(ctx, "jti-1", now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, added, "second add reports the entry already existed")

	listed, err = b.Contains(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, listed)

	now = now.Add(2 * time.Hour)
	listed, err = b.Contains(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, listed, "entries lapse with the token")
}

func TestInMemoryDeleteExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	b := NewInMemory()

	_, _ = b.Add(ctx, "old", now.Add(-time.Minute))
	_, _ = b.Add(ctx, "fresh", now.Add(time.Hour))

	deleted, err := b.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	listed, _ := b.Contains(ctx, "fresh")
	assert.True(t, listed)
}

func TestInMemoryAddIsAtomic(t *testing.T) {
	ctx := context.Background()
	b := NewInMemory()
	exp := time.Now().Add(time.Hour)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if added, _ := b.Add(ctx, "contended", exp); added {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}
