// Package logger wraps log/slog with the process-wide handler setup and
// request-scoped fields used by the server.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	mu  sync.RWMutex
	log *slog.Logger
)

// Init installs the global logger. format is "text" or "json"; level is one
// of debug, info, warn, error.
func Init(level, format string) {
	InitWriter(os.Stderr, level, format)
}

// InitWriter is Init with an explicit destination.
func InitWriter(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler)
	mu.Lock()
	log = l
	mu.Unlock()
	slog.SetDefault(l)
}

// ParseLevel maps a config string onto a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Get returns the global logger, falling back to slog's default when Init
// has not run.
func Get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if log == nil {
		return slog.Default()
	}
	return log
}

// With returns the global logger with extra fields.
func With(args ...any) *slog.Logger {
	return Get().With(args...)
}

// HTTPLog records one served request.
func HTTPLog(ctx context.Context, method, path string, status int, duration time.Duration) {
	FromContext(ctx).Info("http request",
		"method", method,
		"path", path,
		"status", status,
		"duration_ms", duration.Milliseconds(),
	)
}

// StoreLog records a storage operation at debug level, or at error level
// when it failed.
func StoreLog(ctx context.Context, op string, rows int, duration time.Duration, err error) {
	fields := []any{
		"op", op,
		"rows", rows,
		"duration_ms", duration.Milliseconds(),
	}
	if err != nil {
		fields = append(fields, "error", err.Error())
		FromContext(ctx).Error("storage operation failed", fields...)
		return
	}
	FromContext(ctx).Debug("storage operation", fields...)
}
