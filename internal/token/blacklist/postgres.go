package blacklist

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Postgres persists revoked jtis in the public token_blacklist table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (b *Postgres) Add(ctx context.Context, jti string, expiresAt time.Time) (bool, error) {
	res, err := b.db.ExecContext(ctx, `
		INSERT INTO public.token_blacklist (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, expiresAt)
	if err != nil {
		return false, fmt.Errorf("blacklist add: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("blacklist add: %w", err)
	}
	return n == 1, nil
}

func (b *Postgres) Contains(ctx context.Context, jti string) (bool, error) {
	var listed bool
	err := b.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM public.token_blacklist WHERE jti = $1)`, jti,
	).Scan(&listed)
	if err != nil {
		return false, fmt.Errorf("blacklist lookup: %w", err)
	}
	return listed, nil
}

// DeleteExpired drops entries whose tokens have expired.
func (b *Postgres) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := b.db.ExecContext(ctx, `DELETE FROM public.token_blacklist WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("blacklist purge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("blacklist purge: %w", err)
	}
	return int(n), nil
}
