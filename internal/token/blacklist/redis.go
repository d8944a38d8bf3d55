package blacklist

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "tenantgate:blacklist:"

// Redis keeps one key per revoked jti with a TTL matching the token expiry,
// so entries disappear on their own.
type Redis struct {
	client redis.Cmdable
	now    func() time.Time
}

func NewRedis(client redis.Cmdable) *Redis {
	return &Redis{client: client, now: time.Now}
}

func (b *Redis) Add(ctx context.Context, jti string, expiresAt time.Time) (bool, error) {
	ttl := expiresAt.Sub(b.now())
	if ttl <= 0 {
		// The token no longer verifies; nothing to remember.
		return true, nil
	}
	added, err := b.client.SetNX(ctx, redisKeyPrefix+jti, expiresAt.Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("blacklist add: %w", err)
	}
	return added, nil
}

func (b *Redis) Contains(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, redisKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("blacklist lookup: %w", err)
	}
	return n > 0, nil
}
