// Package logger provides the structured logger shared by every component of a run.
package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// Logger provides structured logging functionality.
type Logger struct {
	internal *slog.Logger
}

// New creates a logger writing to w. Format is "text" or "json".
func New(w io.Writer, level, format string) *Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{
		internal: slog.New(&traceHandler{inner: handler}),
	}
}

// Discard returns a logger that drops everything. Used in tests.
func Discard() *Logger {
	return New(io.Discard, "error", "text")
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level slog.Level) bool {
	return l.internal.Enabled(context.Background(), level)
}

// InfoContext logs an info level message tied to ctx.
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.internal.InfoContext(ctx, msg, args...)
}

// WarnContext logs a warning level message tied to ctx.
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.internal.WarnContext(ctx, msg, args...)
}

// ErrorContext logs an error level message tied to ctx.
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.internal.ErrorContext(ctx, msg, args...)
}

// Info logs an info level message.
func (l *Logger) Info(msg string, args ...any) {
	l.internal.Info(msg, args...)
}

// Error logs an error level message.
func (l *Logger) Error(msg string, args ...any) {
	l.internal.Error(msg, args...)
}

// Debug logs a debug level message.
func (l *Logger) Debug(msg string, args ...any) {
	l.internal.Debug(msg, args...)
}

// Warn logs a warning level message.
func (l *Logger) Warn(msg string, args ...any) {
	l.internal.Warn(msg, args...)
}

// With creates a child logger with the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		internal: l.internal.With(args...),
	}
}
