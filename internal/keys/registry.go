// Package keys loads the signing keymap and serves signing and verification
// material by key identifier.
package keys

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"

	"github.com/golang-jwt/jwt/v5"
)

// FallbackKID names the pre-shared secret used when the keymap cannot serve.
const FallbackKID = "default"

var (
	ErrNoActiveKey    = errors.New("keymap has no single active key")
	ErrKeyNotFound    = errors.New("unknown key identifier")
	ErrKeyUnavailable = errors.New("key material unavailable")
)

// Config locates the keymap and the fallback secret.
type Config struct {
	Dir                string
	KeymapFile         string
	PrivateKeyPassword string
	FallbackSecret     string
}

// SigningKey is the material used to sign new tokens.
type SigningKey struct {
	ID     string
	Method jwt.SigningMethod
	Key    any
}

// Registry is read-only after Load and safe for concurrent use.
type Registry struct {
	active     SigningKey
	fallback   bool
	publicKeys map[string]*rsa.PublicKey
	activeErr  error
	secret     []byte
}

type registryConfig struct {
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures Load.
type Option func(*registryConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *registryConfig) { c.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(c *registryConfig) { c.metrics = m }
}

// Load reads the keymap once. A missing or unreadable keymap, or an active
// private key that cannot be loaded, degrades to HS256 signing with the
// fallback secret. A readable keymap without exactly one active entry fails.
func Load(cfg Config, opts ...Option) (*Registry, error) {
	c := registryConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&c)
	}
	if cfg.FallbackSecret == "" {
		return nil, errors.New("fallback secret is required")
	}

	r := &Registry{
		publicKeys: make(map[string]*rsa.PublicKey),
		secret:     []byte(cfg.FallbackSecret),
	}

	keymapPath := filepath.Join(cfg.Dir, cfg.KeymapFile)
	km, err := ReadKeymap(keymapPath)
	if err != nil {
		r.enterFallback(c.logger, "keymap unavailable", err)
		c.metrics.record(true, 0)
		return r, nil
	}

	activeID, err := km.ActiveID()
	if err != nil {
		return nil, err
	}

	for _, kid := range km.IDs() {
		entry := km[kid]
		pub, err := LoadPublicKey(resolve(cfg.Dir, entry.Public))
		if err != nil {
			if kid == activeID {
				r.activeErr = err
			}
			c.logger.Warn("public key unavailable", "kid", kid, "error", err)
			continue
		}
		r.publicKeys[kid] = pub
	}

	priv, err := LoadPrivateKey(resolve(cfg.Dir, km[activeID].Private), cfg.PrivateKeyPassword)
	if err != nil {
		r.enterFallback(c.logger, "active private key unavailable", err)
		c.metrics.record(true, len(r.publicKeys))
		return r, nil
	}
	if pub, ok := r.publicKeys[activeID]; ok && !pub.Equal(&priv.PublicKey) {
		return nil, fmt.Errorf("key %q: public key does not match private key", activeID)
	}

	r.active = SigningKey{ID: activeID, Method: jwt.SigningMethodRS256, Key: priv}
	c.logger.Info("signing keys loaded",
		"active_kid", activeID,
		"verification_keys", len(r.publicKeys),
	)
	c.metrics.record(false, len(r.publicKeys))
	return r, nil
}

func (r *Registry) enterFallback(logger *slog.Logger, reason string, err error) {
	r.fallback = true
	r.active = SigningKey{ID: FallbackKID, Method: jwt.SigningMethodHS256, Key: r.secret}
	logger.Warn("signing_key_fallback",
		"reason", reason,
		"error", err,
		"kid", FallbackKID,
	)
}

// ActiveKey returns the key that signs new tokens.
func (r *Registry) ActiveKey() SigningKey {
	return r.active
}

// Fallback reports whether the registry is signing with the pre-shared secret.
func (r *Registry) Fallback() bool {
	return r.fallback
}

// PublicKey returns the verification key for kid.
func (r *Registry) PublicKey(kid string) (*rsa.PublicKey, error) {
	pub, ok := r.publicKeys[kid]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, kid)
	}
	return pub, nil
}

// PublicKeys returns a copy of every loaded verification key.
func (r *Registry) PublicKeys() map[string]*rsa.PublicKey {
	return maps.Clone(r.publicKeys)
}

// ActivePublicKey returns the public half of the active signing key. It
// fails with ErrKeyUnavailable in fallback mode or when the active public
// key could not be read.
func (r *Registry) ActivePublicKey() (string, *rsa.PublicKey, error) {
	if r.fallback {
		return "", nil, fmt.Errorf("%w: signing with fallback secret", ErrKeyUnavailable)
	}
	pub, ok := r.publicKeys[r.active.ID]
	if !ok {
		return "", nil, fmt.Errorf("%w: %v", ErrKeyUnavailable, r.activeErr)
	}
	return r.active.ID, pub, nil
}

// VerificationKey returns the key and the only algorithm accepted for kid.
// The fallback secret verifies only while the registry is in fallback mode.
func (r *Registry) VerificationKey(kid string) (any, jwt.SigningMethod, error) {
	if kid == FallbackKID {
		if !r.fallback {
			return nil, nil, fmt.Errorf("%w: %q", ErrKeyNotFound, kid)
		}
		return r.secret, jwt.SigningMethodHS256, nil
	}
	pub, err := r.PublicKey(kid)
	if err != nil {
		return nil, nil, err
	}
	return pub, jwt.SigningMethodRS256, nil
}

// KeymapExists reports whether the keymap file is present.
func KeymapExists(cfg Config) bool {
	_, err := os.Stat(filepath.Join(cfg.Dir, cfg.KeymapFile))
	return err == nil
}
