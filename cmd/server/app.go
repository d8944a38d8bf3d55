package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tenantgate/internal/audit"
	authhandler "tenantgate/internal/auth/handler"
	authmetrics "tenantgate/internal/auth/metrics"
	authservice "tenantgate/internal/auth/service"
	"tenantgate/internal/jwks"
	"tenantgate/internal/keys"
	orghandler "tenantgate/internal/organization/handler"
	orgmetrics "tenantgate/internal/organization/metrics"
	orgservice "tenantgate/internal/organization/service"
	"tenantgate/internal/platform/config"
	"tenantgate/internal/platform/database"
	"tenantgate/internal/platform/health"
	"tenantgate/internal/platform/kafka/producer"
	"tenantgate/internal/platform/redis"
	"tenantgate/internal/tenant/namespace"
	"tenantgate/internal/tenant/resolver"
	tenantstore "tenantgate/internal/tenant/store"
	"tenantgate/internal/token"
	"tenantgate/internal/token/blacklist"
	userstore "tenantgate/internal/user/store"
	"tenantgate/pkg/platform/middleware/metadata"
	"tenantgate/pkg/platform/tracer"
)

const (
	blacklistCleanupInterval = time.Hour
	redisStatsInterval       = 15 * time.Second
	auditBufferSize          = 1024
)

// app holds the wired components. workers run alongside the HTTP server
// until the root context is cancelled.
type app struct {
	cfg    config.Server
	tracer tracer.Tracer

	tokens   *token.Service
	resolver *resolver.Resolver
	metadata *metadata.Middleware

	health *health.Handler
	jwks   *jwks.Handler
	auth   *authhandler.Handler
	orgs   *orghandler.Handler

	workers []func(context.Context) error
	closers []func()
}

// tenantStore is what both the resolver and the provisioner need from tenant persistence.
type tenantStore interface {
	resolver.TenantLookup
	orgservice.TenantStore
}

func buildApp(ctx context.Context, cfg config.Server, log *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, tracer: tracer.NewOTel(), health: health.New()}

	registry, err := keys.Load(keys.Config{
		Dir:                cfg.Keys.Dir,
		KeymapFile:         cfg.Keys.KeymapFile,
		PrivateKeyPassword: cfg.Keys.PrivateKeyPassword,
		FallbackSecret:     cfg.Keys.FallbackSecret,
	}, keys.WithLogger(log), keys.WithMetrics(keys.NewMetrics()))
	if err != nil {
		return nil, fmt.Errorf("load signing keys: %w", err)
	}
	a.health.RegisterCheck("signing_keys", func(context.Context) error {
		if registry.Fallback() {
			return fmt.Errorf("%w: signing with fallback secret", health.ErrDegraded)
		}
		return nil
	})

	pool, err := database.New(database.DefaultConfig(cfg.DatabaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	var (
		tenants tenantStore
		users   authservice.UserStore
		binder  namespace.Binder
		list    token.Blacklist
		expirer blacklist.Expirer
		orgTx   orgservice.StoreTx
	)
	if pool != nil {
		a.closers = append(a.closers, func() { _ = pool.Close() })
		a.health.RegisterCheck("database", pool.Health)
		if err := database.Migrate(ctx, pool.DB()); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		tenants = tenantstore.NewPostgres(pool.DB())
		users = userstore.NewPostgres(pool.DB())
		binder = namespace.NewPostgresBinder(pool, log)
		orgTx = newTenantPostgresTx(pool.DB())
		pg := blacklist.NewPostgres(pool.DB())
		list, expirer = pg, pg
	} else {
		memTenants := tenantstore.NewInMemory()
		memUsers := userstore.NewInMemory()
		memTenants.OnDrop(memUsers.DropSchema)
		tenants, users = memTenants, memUsers
		binder = namespace.NewMemoryBinder()
		mem := blacklist.NewInMemory()
		list, expirer = mem, mem
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	redisClient, err := redis.New(ctx, redis.DefaultConfig(cfg.RedisURL))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		a.health.RegisterCheck("redis", redisClient.Health)
		a.workers = append(a.workers, func(ctx context.Context) error {
			return redisClient.RunPoolStats(ctx, redisStatsInterval)
		})
		list, expirer = blacklist.NewRedis(redisClient), nil
	}
	if expirer != nil {
		cleaner := blacklist.NewCleaner(expirer, blacklistCleanupInterval, log)
		a.workers = append(a.workers, cleaner.Start)
	}

	sink, err := a.auditSink(cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	publisher := audit.NewPublisher(sink, audit.WithAsyncBuffer(auditBufferSize), audit.WithPublisherLogger(log))
	// Registered before the producer closer so buffered events drain into it.
	a.closers = append([]func(){publisher.Close}, a.closers...)

	a.tokens, err = token.New(registry, list, token.Config{
		AccessTTL:       cfg.Tokens.AccessTTL,
		RefreshTTL:      cfg.Tokens.RefreshTTL,
		Issuer:          cfg.Tokens.Issuer,
		Audience:        cfg.Tokens.Audience,
		RotateOnRefresh: cfg.Tokens.RotateOnUse,
	}, token.WithLogger(log), token.WithMetrics(token.NewMetrics()))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("token service: %w", err)
	}

	policy, err := config.LoadRoutePolicy(cfg.RoutePolicyFile)
	if err != nil {
		a.Close()
		return nil, err
	}
	header := cfg.TenantHeader
	if policy.TenantHeader != "" && cfg.TenantHeader == config.DefaultTenantHeader {
		header = policy.TenantHeader
	}
	a.resolver = resolver.New(
		resolver.NewPolicy(policy.Public, policy.HeaderEligible),
		a.tokens, tenants, binder,
		resolver.WithLogger(log),
		resolver.WithMetrics(resolver.NewMetrics()),
		resolver.WithTracer(a.tracer),
		resolver.WithHeader(header),
	)

	prefixes, err := metadata.ParsePrefixes(cfg.TrustedProxies)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	a.metadata = metadata.NewMiddleware(prefixes)

	authSvc, err := authservice.New(users, a.tokens,
		authservice.WithLogger(log),
		authservice.WithMetrics(authmetrics.New()),
		authservice.WithAuditPublisher(publisher),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	orgSvc, err := orgservice.New(tenants, users, binder,
		orgservice.WithLogger(log),
		orgservice.WithMetrics(orgmetrics.New()),
		orgservice.WithAuditPublisher(publisher),
		orgservice.WithTx(orgTx),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.jwks = jwks.NewHandler(jwks.NewPublisher(registry), log)
	a.auth = authhandler.New(authSvc, log)
	a.orgs = orghandler.New(orgSvc, log)
	return a, nil
}

// auditSink selects Kafka when brokers are configured, otherwise structured logs.
func (a *app) auditSink(cfg config.Server, log *slog.Logger) (audit.Sink, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return audit.NewLogSink(log), nil
	}
	p, err := producer.New(producer.DefaultConfig(cfg.Kafka.Brokers), log)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	a.closers = append(a.closers, func() { _ = p.Close() })
	a.health.RegisterCheck("kafka", p.Health)
	return audit.NewKafkaSink(p, cfg.Kafka.AuditTopic), nil
}

// Close releases resources in registration order.
func (a *app) Close() {
	for _, c := range a.closers {
		c()
	}
	a.closers = nil
}
