package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "tenantgate/pkg/domain-errors"
	txcontext "tenantgate/pkg/platform/tx"
)

const defaultTenantTxTimeout = 5 * time.Second

// tenantPostgresTx runs organization provisioning in one database
// transaction. Nested calls join the transaction already in ctx.
type tenantPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newTenantPostgresTx(db *sql.DB) *tenantPostgresTx {
	return &tenantPostgresTx{db: db}
}

func (t *tenantPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, ok := txcontext.From(ctx); ok {
		return fn(ctx)
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTenantTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is no-op; error already captured
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	return tx.Commit()
}
