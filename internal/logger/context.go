package logger

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	adminKey     contextKey = "admin"
)

// WithRequestID adds a request ID to ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithAdmin adds the authenticated admin's name to ctx.
func WithAdmin(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, adminKey, username)
}

// RequestID returns the request ID stored in ctx, if any.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// FromContext returns the global logger annotated with the request ID and
// admin name found in ctx.
func FromContext(ctx context.Context) *slog.Logger {
	l := Get()
	if ctx == nil {
		return l
	}

	var fields []any
	if id := RequestID(ctx); id != "" {
		fields = append(fields, "request_id", id)
	}
	if admin, ok := ctx.Value(adminKey).(string); ok && admin != "" {
		fields = append(fields, "admin", admin)
	}
	if len(fields) > 0 {
		l = l.With(fields...)
	}
	return l
}
