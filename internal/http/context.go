package http

import (
	"context"
	"log/slog"

	"github.com/example/orientation-hub/internal/logging"
)

type contextKey string

const principalContextKey contextKey = "principal"

// ContextWithPrincipal returns a derived context carrying the caller's username.
func ContextWithPrincipal(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, principalContextKey, username)
}

// PrincipalFromContext extracts the caller's username if one was resolved.
func PrincipalFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(principalContextKey).(string)
	return username, ok && username != ""
}

// ContextWithLogger attaches a request-scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request-scoped logger, or nil.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
