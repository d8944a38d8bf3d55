package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// ErrNotConfigured is returned by Pool methods when no DATABASE_URL was given.
var ErrNotConfigured = errors.New("database not configured")

const defaultApplicationName = "tenantgate"

// Config holds database connection configuration.
type Config struct {
	URL             string
	ApplicationName string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

// DefaultConfig returns defaults for the given DSN. Every in-flight tenant
// request holds one connection, so MaxOpenConns bounds tenant concurrency.
func DefaultConfig(url string) Config {
	return Config{
		URL:             url,
		ApplicationName: defaultApplicationName,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		PingTimeout:     5 * time.Second,
	}
}

// Pool is the shared public-schema connection pool. Tenant binding checks
// out dedicated connections through Conn and rewrites their search_path.
type Pool struct {
	db *sql.DB
}

// New opens the pool. A nil Pool and nil error mean persistence is in memory.
func New(cfg Config) (*Pool, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	connCfg, err := connConfig(cfg)
	if err != nil {
		return nil, err
	}

	db := stdlib.OpenDB(*connCfg)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck // best-effort cleanup on init failure
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{db: db}, nil
}

// connConfig parses the DSN and pins every fresh session to the public
// schema so a recycled connection never starts inside a tenant namespace.
func connConfig(cfg Config) (*pgx.ConnConfig, error) {
	connCfg, err := pgx.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if connCfg.RuntimeParams == nil {
		connCfg.RuntimeParams = map[string]string{}
	}
	connCfg.RuntimeParams["search_path"] = "public"
	name := cfg.ApplicationName
	if name == "" {
		name = defaultApplicationName
	}
	if _, set := connCfg.RuntimeParams["application_name"]; !set {
		connCfg.RuntimeParams["application_name"] = name
	}
	return connCfg, nil
}

func (p *Pool) DB() *sql.DB {
	return p.db
}

// Conn checks out a dedicated connection from the pool. The caller must Close it.
func (p *Pool) Conn(ctx context.Context) (*sql.Conn, error) {
	if p == nil || p.db == nil {
		return nil, ErrNotConfigured
	}
	return p.db.Conn(ctx)
}

func (p *Pool) Health(ctx context.Context) error {
	if p == nil || p.db == nil {
		return ErrNotConfigured
	}
	return p.db.PingContext(ctx)
}

func (p *Pool) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}
