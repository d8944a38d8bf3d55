package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"tenantgate/internal/user/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/platform/tx"
)

// PostgresStore reads and writes the users table of whichever schema the
// request's connection is bound to. Queries are unqualified so the bound
// search_path picks the schema.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("user is required")
	}
	roles, err := json.Marshal(nonNil(user.Roles))
	if err != nil {
		return fmt.Errorf("encode roles: %w", err)
	}
	_, err = tx.QuerierFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, roles, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.UUID(user.ID), user.Username, user.Email, user.PasswordHash, string(roles), user.CreatedAt)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			if constraint == emailConstraint {
				return fmt.Errorf("%w: %w", ErrDuplicateEmail, sentinel.ErrAlreadyUsed)
			}
			return fmt.Errorf("%w: %w", ErrDuplicateUsername, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	query := `
		SELECT id, username, email, password_hash, roles, created_at
		FROM users
		WHERE id = $1
	`
	user, err := scanUser(tx.QuerierFrom(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(userID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, email, password_hash, roles, created_at
		FROM users
		WHERE username = $1
	`
	user, err := scanUser(tx.QuerierFrom(ctx, s.db).QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return user, nil
}

type userRow interface {
	Scan(dest ...any) error
}

func scanUser(row userRow) (*models.User, error) {
	var u models.User
	var userID uuid.UUID
	var roles []byte
	if err := row.Scan(&userID, &u.Username, &u.Email, &u.PasswordHash, &roles, &u.CreatedAt); err != nil {
		return nil, err
	}
	if len(roles) > 0 {
		if err := json.Unmarshal(roles, &u.Roles); err != nil {
			return nil, fmt.Errorf("decode roles: %w", err)
		}
	}
	u.ID = id.UserID(userID)
	return &u, nil
}

func nonNil(roles []string) []string {
	if roles == nil {
		return []string{}
	}
	return roles
}

// emailConstraint is the name PostgreSQL gives the UNIQUE constraint on users.email.
const emailConstraint = "users_email_key"

func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName, true
	}
	return "", false
}
