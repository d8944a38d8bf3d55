package service

import (
	"context"
	"errors"
	"time"

	"tenantgate/internal/audit"
	"tenantgate/internal/token"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/requestcontext"
	"tenantgate/pkg/secrets"
)

// Login failure reasons, used as metric labels and audit reasons.
const (
	reasonUnknownUser   = "unknown_user"
	reasonBadPassword   = "bad_password"
	reasonNoTenant      = "no_tenant"
	reasonInternalError = "internal_error"
)

// Login authenticates against the users of the request's tenant and issues a
// token pair. Unknown users and wrong passwords are indistinguishable.
func (s *Service) Login(ctx context.Context, cmd LoginCommand) (*Result, error) {
	start := time.Now()
	defer s.metrics.ObserveLoginDuration(start)

	tenant := requestcontext.TenantFrom(ctx)
	label := tenantLabel(tenant)
	s.metrics.IncrementLoginAttempt(label)

	fail := func(reason string, err error) error {
		s.metrics.IncrementLoginFailure(label, reason)
		s.emit(ctx, audit.Event{Action: audit.ActionLoginFailed, Username: cmd.Username, Reason: reason})
		s.logFailure(ctx, "login failed", err, "reason", reason, "tenant", label)
		return err
	}

	if !tenant.Resolved() {
		return nil, fail(reasonNoTenant, dErrors.New(dErrors.CodeBadRequest, msgInvalidCredentials))
	}

	user, err := s.users.FindByUsername(ctx, cmd.Username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			secrets.VerifyDecoy(cmd.Password)
			return nil, fail(reasonUnknownUser, dErrors.New(dErrors.CodeBadRequest, msgInvalidCredentials))
		}
		return nil, fail(reasonInternalError, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user"))
	}
	if err := secrets.Verify(cmd.Password, user.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return nil, fail(reasonBadPassword, dErrors.New(dErrors.CodeBadRequest, msgInvalidCredentials))
		}
		return nil, fail(reasonInternalError, err)
	}

	pair, err := s.tokens.Issue(ctx, snapshot(user, tenant))
	if err != nil {
		return nil, fail(reasonInternalError, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue tokens"))
	}

	s.metrics.IncrementLoginSuccess(label)
	s.emit(ctx, audit.Event{Action: audit.ActionLoginSucceeded, UserID: user.ID.String(), Username: user.Username})
	s.logger.InfoContext(ctx, "user logged in",
		"user_id", user.ID.String(),
		"tenant", label,
		"request_id", requestcontext.RequestID(ctx),
	)
	return &Result{Pair: pair, User: user}, nil
}

// Refresh derives a new access token from a refresh token. Claims come from
// a fresh user lookup, never from an earlier token.
func (s *Service) Refresh(ctx context.Context, refresh string) (*Result, error) {
	claims, err := s.tokens.VerifyRefreshToken(ctx, refresh)
	if err != nil {
		s.logFailure(ctx, "refresh rejected", err)
		return nil, tokenErr(err, msgInvalidRefresh)
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, dErrors.Wrap(token.ErrInvalidToken, dErrors.CodeUnauthorized, msgInvalidRefresh)
	}

	tenant := requestcontext.TenantFrom(ctx)
	if !tenant.Resolved() {
		return nil, dErrors.New(dErrors.CodeNotFound, msgUserNotFound)
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, msgUserNotFound)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	pair, err := s.tokens.Refresh(ctx, refresh, snapshot(user, tenant))
	if err != nil {
		s.logFailure(ctx, "refresh rejected", err, "user_id", user.ID.String())
		return nil, tokenErr(err, msgInvalidRefresh)
	}

	s.emit(ctx, audit.Event{Action: audit.ActionTokenRefreshed, UserID: user.ID.String(), Username: user.Username})
	return &Result{Pair: pair, User: user}, nil
}

// Logout blacklists refresh until it expires. Logging out twice succeeds.
func (s *Service) Logout(ctx context.Context, refresh string) error {
	if err := s.tokens.Revoke(ctx, refresh); err != nil {
		s.logFailure(ctx, "logout rejected", err)
		return tokenErr(err, msgInvalidToken)
	}
	userID := requestcontext.UserID(ctx)
	event := audit.Event{Action: audit.ActionLogout}
	if !userID.IsNil() {
		event.UserID = userID.String()
	}
	s.emit(ctx, event)
	return nil
}

// VerifyToken checks an access token issued for the request's tenant and
// reloads its user.
func (s *Service) VerifyToken(ctx context.Context, raw string) (*Verification, error) {
	claims, err := s.tokens.VerifyAccessToken(ctx, raw)
	if err != nil {
		return nil, tokenErr(err, msgInvalidToken)
	}
	tenant := requestcontext.TenantFrom(ctx)
	if !tenant.Resolved() || claims.OrgID != tenant.ID.String() {
		s.logger.WarnContext(ctx, "token presented for another tenant",
			"token_org_id", claims.OrgID,
			"tenant", tenantLabel(tenant),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.New(dErrors.CodeUnauthorized, msgInvalidToken)
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, msgInvalidToken)
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, msgUserNotFound)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return &Verification{Claims: claims, User: user}, nil
}
