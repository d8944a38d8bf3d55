// Package token mints, derives, verifies and revokes the gateway's JWTs.
package token

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	"tenantgate/internal/keys"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/requestcontext"
)

// KeySource supplies signing and verification material by key identifier.
type KeySource interface {
	ActiveKey() keys.SigningKey
	VerificationKey(kid string) (any, jwt.SigningMethod, error)
}

// Blacklist records revoked refresh-token identifiers. Add reports whether
// the jti was newly listed.
type Blacklist interface {
	Add(ctx context.Context, jti string, expiresAt time.Time) (bool, error)
	Contains(ctx context.Context, jti string) (bool, error)
}

// Config holds token lifetimes and the optional iss/aud claims.
type Config struct {
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	Issuer          string
	Audience        string
	RotateOnRefresh bool
}

// Pair is the result of issuing or refreshing tokens.
type Pair struct {
	Access       string
	Refresh      string
	AccessClaims *Claims
}

type Service struct {
	keys      KeySource
	blacklist Blacklist
	cfg       Config
	logger    *slog.Logger
	metrics   *Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(keySource KeySource, blacklist Blacklist, cfg Config, opts ...Option) (*Service, error) {
	if keySource == nil || blacklist == nil {
		return nil, errors.New("key source and blacklist are required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	s := &Service{
		keys:      keySource,
		blacklist: blacklist,
		cfg:       cfg,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RotatesOnRefresh reports the refresh rotation policy.
func (s *Service) RotatesOnRefresh() bool {
	return s.cfg.RotateOnRefresh
}

// MintRefreshToken signs a minimal refresh token for userID with the active key.
func (s *Service) MintRefreshToken(ctx context.Context, userID id.UserID) (string, *Claims, error) {
	if userID.IsNil() {
		return "", nil, errors.New("refresh token subject is required")
	}
	now := requestcontext.Now(ctx)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        ulid.Make().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.RefreshTTL)),
		},
		TokenType: TypeRefresh,
	}
	signed, err := s.sign(claims)
	if err != nil {
		return "", nil, err
	}
	s.metrics.generated(TypeRefresh)
	return signed, claims, nil
}

// DeriveAccessToken validates refresh and builds an access token from its
// subject and the freshly loaded user snapshot.
func (s *Service) DeriveAccessToken(ctx context.Context, refresh string, user UserSnapshot) (string, *Claims, error) {
	refreshClaims, err := s.VerifyRefreshToken(ctx, refresh)
	if err != nil {
		return "", nil, err
	}
	return s.deriveFrom(ctx, refreshClaims, user)
}

func (s *Service) deriveFrom(ctx context.Context, refresh *Claims, user UserSnapshot) (string, *Claims, error) {
	if user.UserID.String() != refresh.Subject {
		s.logger.WarnContext(ctx, "user snapshot does not match refresh subject",
			"request_id", requestcontext.RequestID(ctx),
		)
		return "", nil, fmt.Errorf("%w: subject mismatch", ErrInvalidToken)
	}

	now := requestcontext.Now(ctx)
	exp := now.Add(s.cfg.AccessTTL)
	if refresh.ExpiresAt != nil && refresh.ExpiresAt.Before(exp) {
		exp = refresh.ExpiresAt.Time
	}

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   refresh.Subject,
			ID:        ulid.Make().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			Issuer:    s.cfg.Issuer,
		},
		TokenType: TypeAccess,
	}
	if s.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.cfg.Audience}
	}
	user.apply(claims)

	signed, err := s.sign(claims)
	if err != nil {
		return "", nil, err
	}
	s.metrics.generated(TypeAccess)
	return signed, claims, nil
}

// Issue mints a refresh token and the access token derived from it. Call it
// only after the user has authenticated.
func (s *Service) Issue(ctx context.Context, user UserSnapshot) (*Pair, error) {
	refresh, refreshClaims, err := s.MintRefreshToken(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	access, accessClaims, err := s.deriveFrom(ctx, refreshClaims, user)
	if err != nil {
		return nil, err
	}
	return &Pair{Access: access, Refresh: refresh, AccessClaims: accessClaims}, nil
}

// Refresh derives a new access token from presented. With rotation enabled
// the presented token is blacklisted and replaced; otherwise it is returned
// unchanged.
func (s *Service) Refresh(ctx context.Context, presented string, user UserSnapshot) (*Pair, error) {
	claims, err := s.VerifyRefreshToken(ctx, presented)
	if err != nil {
		return nil, err
	}
	if !s.cfg.RotateOnRefresh {
		access, accessClaims, err := s.deriveFrom(ctx, claims, user)
		if err != nil {
			return nil, err
		}
		return &Pair{Access: access, Refresh: presented, AccessClaims: accessClaims}, nil
	}

	if user.UserID.String() != claims.Subject {
		return nil, fmt.Errorf("%w: subject mismatch", ErrInvalidToken)
	}
	// Sign before listing so a signing failure leaves the presented token usable.
	pair, err := s.Issue(ctx, user)
	if err != nil {
		return nil, err
	}
	added, err := s.blacklist.Add(ctx, claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	if !added {
		// A concurrent refresh consumed this token first.
		return nil, ErrRevoked
	}
	return pair, nil
}

// VerifyAccessToken checks signature, expiry, token type and the configured
// issuer and audience.
func (s *Service) VerifyAccessToken(ctx context.Context, raw string) (*Claims, error) {
	return s.verify(ctx, raw, TypeAccess)
}

// VerifyRefreshToken checks signature, expiry, token type and the blacklist.
func (s *Service) VerifyRefreshToken(ctx context.Context, raw string) (*Claims, error) {
	claims, err := s.verify(ctx, raw, TypeRefresh)
	if err != nil {
		return nil, err
	}
	listed, err := s.blacklist.Contains(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("blacklist lookup: %w", err)
	}
	if listed {
		s.logger.InfoContext(ctx, "blacklisted refresh token presented",
			"jti", claims.ID,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, ErrRevoked
	}
	return claims, nil
}

// Revoke blacklists a refresh token until it expires. Revoking an already
// revoked token succeeds.
func (s *Service) Revoke(ctx context.Context, refresh string) error {
	claims, err := s.verify(ctx, refresh, TypeRefresh)
	if err != nil {
		return err
	}
	if _, err := s.blacklist.Add(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (s *Service) sign(claims *Claims) (string, error) {
	key := s.keys.ActiveKey()
	t := jwt.NewWithClaims(key.Method, claims)
	t.Header["kid"] = key.ID
	signed, err := t.SignedString(key.Key)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", claims.TokenType, err)
	}
	return signed, nil
}

func (s *Service) verify(ctx context.Context, raw string, want Type) (*Claims, error) {
	start := time.Now()
	claims, err := s.parse(ctx, raw, want)
	s.metrics.validated(start, err == nil)
	if err != nil {
		s.logger.DebugContext(ctx, "token rejected",
			"reason", rejectionReason(err),
			"token_type", string(want),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

func (s *Service) parse(ctx context.Context, raw string, want Type) (*Claims, error) {
	now := requestcontext.Now(ctx)
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg(), jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}
	if want == TypeAccess {
		if s.cfg.Issuer != "" {
			opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
		}
		if s.cfg.Audience != "" {
			opts = append(opts, jwt.WithAudience(s.cfg.Audience))
		}
	}

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(raw, claims, s.keyFunc, opts...); err != nil {
		return nil, err
	}
	if claims.TokenType != want {
		return nil, fmt.Errorf("%w: got %q", errWrongType, claims.TokenType)
	}
	if claims.ID == "" {
		return nil, errMissingJTI
	}
	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadSubject, err)
	}
	return claims, nil
}

func (s *Service) keyFunc(t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		return nil, errMissingKID
	}
	key, method, err := s.keys.VerificationKey(kid)
	if err != nil {
		return nil, err
	}
	if t.Method.Alg() != method.Alg() {
		return nil, fmt.Errorf("%w: %s for kid %q", errAlgorithm, t.Method.Alg(), kid)
	}
	return key, nil
}

var (
	errWrongType  = errors.New("wrong token type")
	errMissingJTI = errors.New("missing jti")
	errMissingKID = errors.New("missing kid header")
	errAlgorithm  = errors.New("algorithm not accepted")
	errBadSubject = errors.New("invalid subject")
)

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "bad_signature"
	case errors.Is(err, keys.ErrKeyNotFound), errors.Is(err, errMissingKID):
		return "unknown_kid"
	case errors.Is(err, errAlgorithm):
		return "algorithm"
	case errors.Is(err, errWrongType):
		return "wrong_type"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return "not_yet_valid"
	default:
		return "invalid_claims"
	}
}
