package middleware

import (
	"context"

	"go.uber.org/zap"
)

type contextKey string

const (
	requestIDContextKey contextKey = "request_id"
	loggerContextKey    contextKey = "logger"
)

// RequestIDHeader is echoed back on every response.
const RequestIDHeader = "X-Request-ID"

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

// LoggerFromContext returns the request-scoped logger, or a no-op logger
// outside of RequestLogger.
func LoggerFromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerContextKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

func withLogger(ctx context.Context, id string, log *zap.Logger) context.Context {
	ctx = context.WithValue(ctx, requestIDContextKey, id)
	return context.WithValue(ctx, loggerContextKey, log)
}
