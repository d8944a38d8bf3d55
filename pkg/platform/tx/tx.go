// Package tx carries an open *sql.Tx, or a connection pinned to a tenant
// namespace, through context so nested store calls join the caller's
// transaction or connection.
package tx

import (
	"context"
	"database/sql"
)

type (
	txKey   struct{}
	connKey struct{}
)

// Querier is the subset of *sql.DB, *sql.Tx and *sql.Conn used by stores.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	return tx, ok && tx != nil
}

// WithConn attaches a dedicated connection whose search_path is bound to a tenant.
func WithConn(ctx context.Context, conn *sql.Conn) context.Context {
	return context.WithValue(ctx, connKey{}, conn)
}

func ConnFrom(ctx context.Context) (*sql.Conn, bool) {
	conn, ok := ctx.Value(connKey{}).(*sql.Conn)
	return conn, ok && conn != nil
}

// QuerierFrom picks the open transaction, then the bound connection, then db.
func QuerierFrom(ctx context.Context, db *sql.DB) Querier {
	if tx, ok := From(ctx); ok {
		return tx
	}
	if conn, ok := ConnFrom(ctx); ok {
		return conn
	}
	return db
}
