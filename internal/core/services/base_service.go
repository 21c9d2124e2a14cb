package services

import (
	"context"
	"log/slog"

	"github.com/bookswapp/bookswap_backend/internal/middleware"
)

// BaseService provides logging helpers shared by the application services.
type BaseService struct{}

// GetLogger returns the request-scoped logger from the context.
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

func (s *BaseService) LogError(ctx context.Context, err error, message string, args ...any) {
	s.GetLogger(ctx).Error(message, append([]any{"error", err}, args...)...)
}

func (s *BaseService) LogWarn(ctx context.Context, message string, args ...any) {
	s.GetLogger(ctx).Warn(message, args...)
}

func (s *BaseService) LogInfo(ctx context.Context, message string, args ...any) {
	s.GetLogger(ctx).Info(message, args...)
}

func (s *BaseService) LogDebug(ctx context.Context, message string, args ...any) {
	s.GetLogger(ctx).Debug(message, args...)
}
