package blacklist

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Expirer is a blacklist that needs explicit pruning.
type Expirer interface {
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// Cleaner periodically prunes expired entries.
type Cleaner struct {
	store    Expirer
	interval time.Duration
	logger   *slog.Logger
}

func NewCleaner(store Expirer, interval time.Duration, logger *slog.Logger) *Cleaner {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{store: store, interval: interval, logger: logger}
}

// Start runs cleanup periodically until ctx is cancelled.
func (c *Cleaner) Start(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			deleted, err := c.store.DeleteExpired(ctx, time.Now())
			if err != nil && !errors.Is(err, context.Canceled) {
				c.logger.ErrorContext(ctx, "blacklist cleanup failed", "error", err)
				continue
			}
			if deleted > 0 {
				c.logger.DebugContext(ctx, "blacklist cleanup", "deleted", deleted)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
