package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"tenantgate/internal/tenant/models"
	"tenantgate/migrations"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/platform/tx"
)

// PostgresStore persists tenant records in public.tenants and owns the
// lifecycle of each tenant's schema.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed tenant store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts the tenant record, creates its schema and applies the
// tenant template. Run it inside a transaction so all three commit together.
func (s *PostgresStore) Create(ctx context.Context, t *models.Tenant) error {
	if t == nil {
		return fmt.Errorf("tenant is required")
	}
	q := tx.QuerierFrom(ctx, s.db)

	_, err := q.ExecContext(ctx, `
		INSERT INTO public.tenants (id, name, schema_name, created_at)
		VALUES ($1, $2, $3, $4)
	`, uuid.UUID(t.ID), t.Name, t.SchemaName, t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("schema name must be unique: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create tenant: %w", err)
	}

	schema := quoteSchema(t.SchemaName)
	if _, err := q.ExecContext(ctx, "CREATE SCHEMA "+schema); err != nil {
		if isDuplicateSchema(err) {
			return fmt.Errorf("schema %s exists: %w", t.SchemaName, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := q.ExecContext(ctx, migrations.TenantTemplate(schema)); err != nil {
		return fmt.Errorf("apply tenant template: %w", err)
	}
	return nil
}

// Delete drops the tenant's schema with everything in it and removes the record.
func (s *PostgresStore) Delete(ctx context.Context, t *models.Tenant) error {
	if t == nil {
		return fmt.Errorf("tenant is required")
	}
	q := tx.QuerierFrom(ctx, s.db)

	if _, err := q.ExecContext(ctx, "DROP SCHEMA IF EXISTS "+quoteSchema(t.SchemaName)+" CASCADE"); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	res, err := q.ExecContext(ctx, `DELETE FROM public.tenants WHERE id = $1`, uuid.UUID(t.ID))
	if err != nil {
		return fmt.Errorf("delete tenant: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete tenant rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// FindByID retrieves a tenant by its UUID.
func (s *PostgresStore) FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	query := `
		SELECT id, name, schema_name, created_at
		FROM public.tenants
		WHERE id = $1
	`
	t, err := scanTenant(tx.QuerierFrom(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(tenantID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find tenant by id: %w", err)
	}
	return t, nil
}

// FindBySchemaName retrieves a tenant by its exact schema name.
func (s *PostgresStore) FindBySchemaName(ctx context.Context, schemaName string) (*models.Tenant, error) {
	query := `
		SELECT id, name, schema_name, created_at
		FROM public.tenants
		WHERE schema_name = $1
	`
	t, err := scanTenant(tx.QuerierFrom(ctx, s.db).QueryRowContext(ctx, query, schemaName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find tenant by schema: %w", err)
	}
	return t, nil
}

type tenantRow interface {
	Scan(dest ...any) error
}

func scanTenant(row tenantRow) (*models.Tenant, error) {
	var t models.Tenant
	var tenantID uuid.UUID
	if err := row.Scan(&tenantID, &t.Name, &t.SchemaName, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.ID = id.TenantID(tenantID)
	return &t, nil
}

func quoteSchema(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isDuplicateSchema(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P06"
	}
	return false
}
