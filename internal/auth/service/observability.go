package service

import (
	"context"

	"tenantgate/internal/audit"
	"tenantgate/pkg/requestcontext"
)

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	s.audit.Emit(ctx, event)
}

func (s *Service) logFailure(ctx context.Context, msg string, err error, attrs ...any) {
	args := append([]any{
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	}, attrs...)
	s.logger.WarnContext(ctx, msg, args...)
}
