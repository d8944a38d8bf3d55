package service

import (
	"context"
	"errors"

	"tenantgate/internal/audit"
	"tenantgate/internal/user/models"
	userstore "tenantgate/internal/user/store"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/requestcontext"
	"tenantgate/pkg/secrets"
)

// Register creates a user in the request's tenant and logs them in.
func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*Result, error) {
	tenant := requestcontext.TenantFrom(ctx)
	if !tenant.Resolved() {
		return nil, dErrors.New(dErrors.CodeBadRequest, msgTenantRequired)
	}

	hash, err := secrets.Hash(cmd.Password)
	if err != nil {
		return nil, err
	}
	user, err := models.NewUser(id.NewUserID(), cmd.Username, cmd.Email, hash, nil, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, userstore.ErrDuplicateEmail):
			return nil, dErrors.New(dErrors.CodeBadRequest, msgEmailTaken)
		case errors.Is(err, userstore.ErrDuplicateUsername):
			return nil, dErrors.New(dErrors.CodeBadRequest, msgUsernameTaken)
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
		}
	}
	s.metrics.IncrementUserCreated(tenant.SchemaName)
	s.emit(ctx, audit.Event{Action: audit.ActionUserCreated, UserID: user.ID.String(), Username: user.Username})

	pair, err := s.tokens.Issue(ctx, snapshot(user, tenant))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue tokens")
	}
	return &Result{Pair: pair, User: user}, nil
}
