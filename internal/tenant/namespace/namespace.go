// Package namespace switches the data-access layer to a tenant's schema for
// the lifetime of one request and guarantees the switch never outlives it.
package namespace

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"tenantgate/pkg/platform/tx"
)

// DefaultSchema is the namespace every connection falls back to.
const DefaultSchema = "public"

// Release undoes a Bind. It is safe to call once.
type Release func()

// Binder scopes ctx to schemaName until the returned Release runs.
type Binder interface {
	Bind(ctx context.Context, schemaName string) (context.Context, Release, error)
}

// Connector hands out dedicated connections; satisfied by *sql.DB and database.Pool.
type Connector interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

// PostgresBinder pins one pooled connection per request and points its
// search_path at the tenant schema.
type PostgresBinder struct {
	pool   Connector
	logger *slog.Logger
}

func NewPostgresBinder(pool Connector, logger *slog.Logger) *PostgresBinder {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresBinder{pool: pool, logger: logger}
}

// Bind checks out a connection, resets it to the default schema first so a
// previous borrower's state can never carry over, then switches to schemaName.
func (b *PostgresBinder) Bind(ctx context.Context, schemaName string) (context.Context, Release, error) {
	conn, err := b.pool.Conn(ctx)
	if err != nil {
		return ctx, nil, fmt.Errorf("checkout connection: %w", err)
	}
	if err := setSearchPath(ctx, conn, DefaultSchema); err != nil {
		discard(conn)
		return ctx, nil, fmt.Errorf("reset search_path: %w", err)
	}
	if err := setSearchPath(ctx, conn, schemaName); err != nil {
		b.release(conn)
		return ctx, nil, fmt.Errorf("bind schema %s: %w", schemaName, err)
	}

	released := false
	release := func() {
		if released {
			return
		}
		released = true
		b.release(conn)
	}
	return tx.WithConn(ctx, conn), release, nil
}

// release returns conn to the pool bound to the default schema, or throws it
// away when the reset fails.
func (b *PostgresBinder) release(conn *sql.Conn) {
	// The request context may already be cancelled; the reset must still run.
	if err := setSearchPath(context.Background(), conn, DefaultSchema); err != nil {
		b.logger.Error("namespace reset failed, discarding connection", "error", err)
		discard(conn)
		return
	}
	if err := conn.Close(); err != nil {
		b.logger.Warn("namespace connection close failed", "error", err)
	}
}

func setSearchPath(ctx context.Context, conn *sql.Conn, schemaName string) error {
	_, err := conn.ExecContext(ctx, "SET search_path TO "+pgx.Identifier{schemaName}.Sanitize())
	return err
}

// discard forces database/sql to drop the physical connection instead of
// pooling it.
func discard(conn *sql.Conn) {
	_ = conn.Raw(func(any) error { return driver.ErrBadConn })
	_ = conn.Close()
}

type schemaKey struct{}

// SchemaFrom returns the schema bound by MemoryBinder, or DefaultSchema.
func SchemaFrom(ctx context.Context) string {
	if s, ok := ctx.Value(schemaKey{}).(string); ok && s != "" {
		return s
	}
	return DefaultSchema
}

// MemoryBinder scopes in-memory stores by carrying the schema name in ctx.
type MemoryBinder struct{}

func NewMemoryBinder() MemoryBinder {
	return MemoryBinder{}
}

func (MemoryBinder) Bind(ctx context.Context, schemaName string) (context.Context, Release, error) {
	if schemaName == "" {
		return ctx, nil, errors.New("schema name is required")
	}
	return context.WithValue(ctx, schemaKey{}, schemaName), func() {}, nil
}
