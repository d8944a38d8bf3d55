package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	strs "tenantgate/pkg/platform/strings"
)

const (
	DefaultAddr            = ":8000"
	DefaultAuditTopic      = "tenantgate.audit"
	DefaultKeyDir          = "keys"
	DefaultKeymapFile      = "keymap.json"
	DefaultTenantHeader    = "X-Org-Id"
	DefaultAccessTokenTTL  = 5 * time.Minute
	DefaultRefreshTokenTTL = 24 * time.Hour
)

// Server captures process level configuration.
type Server struct {
	Addr     string
	LogLevel string

	DatabaseURL string
	RedisURL    string
	Kafka       Kafka

	Keys   Keys
	Tokens Tokens

	TrustedProxies    []string
	RoutePolicyFile   string
	TenantHeader      string
	ProvisioningToken string
}

// Kafka configures the audit sink. Empty brokers select the log sink.
type Kafka struct {
	Brokers    []string
	AuditTopic string
}

// Keys locates signing material.
type Keys struct {
	Dir                string
	KeymapFile         string
	PrivateKeyPassword string
	FallbackSecret     string
}

// Tokens configures token lifetimes and claims.
type Tokens struct {
	Issuer      string
	Audience    string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	RotateOnUse bool
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	secret := os.Getenv("SECRET_KEY")
	if secret == "" {
		// Use a default for development - should be overridden in production
		secret = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:        envOr("TENANTGATE_ADDR", DefaultAddr),
		LogLevel:    envOr("LOG_LEVEL", "info"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		Kafka: Kafka{
			Brokers:    strs.SplitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: envOr("KAFKA_AUDIT_TOPIC", DefaultAuditTopic),
		},
		Keys: Keys{
			Dir:                envOr("JWT_KEY_DIR", DefaultKeyDir),
			KeymapFile:         envOr("JWT_KEYMAP_FILE", DefaultKeymapFile),
			PrivateKeyPassword: os.Getenv("JWT_PRIVATE_KEY_PASSWORD"),
			FallbackSecret:     secret,
		},
		Tokens: Tokens{
			Issuer:      os.Getenv("JWT_ISSUER"),
			Audience:    os.Getenv("JWT_AUDIENCE"),
			AccessTTL:   durationOr("ACCESS_TOKEN_TTL", DefaultAccessTokenTTL),
			RefreshTTL:  durationOr("REFRESH_TOKEN_TTL", DefaultRefreshTokenTTL),
			RotateOnUse: boolOr("ROTATE_REFRESH_TOKENS", true),
		},
		TrustedProxies:    strs.SplitList(os.Getenv("TRUSTED_PROXIES")),
		RoutePolicyFile:   os.Getenv("TENANT_ROUTE_POLICY_FILE"),
		TenantHeader:      envOr("TENANT_HEADER", DefaultTenantHeader),
		ProvisioningToken: os.Getenv("PROVISIONING_TOKEN"),
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func boolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
