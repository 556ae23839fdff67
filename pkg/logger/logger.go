// Package logger provides a thin structured-logging facade over the
// standard library slog package. It keeps call sites independent from
// the underlying handler so the output format can change without
// touching the rest of the codebase.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Logger is the structured logging interface used across the service.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)

	// Named returns a child logger tagged with the given component name.
	Named(name string) Logger
}

// Field is a single structured key/value attribute.
type Field = slog.Attr

// String constructs a string field.
func String(key, value string) Field { return slog.String(key, value) }

// Int constructs an int field.
func Int(key string, value int) Field { return slog.Int(key, value) }

// Int64 constructs an int64 field.
func Int64(key string, value int64) Field { return slog.Int64(key, value) }

// Float64 constructs a float64 field.
func Float64(key string, value float64) Field { return slog.Float64(key, value) }

// Bool constructs a bool field.
func Bool(key string, value bool) Field { return slog.Bool(key, value) }

// Any constructs a field from an arbitrary value.
func Any(key string, value any) Field { return slog.Any(key, value) }

// Err constructs an error field under the conventional "error" key.
func Err(err error) Field {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

var (
	initOnce sync.Once
	root     atomic.Pointer[slogLogger]
	level    = new(slog.LevelVar)
)

// Init sets up the process-wide logger writing JSON to stderr. It is
// safe to call more than once; later calls are no-ops.
func Init() error {
	initOnce.Do(func() {
		h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		root.Store(&slogLogger{l: slog.New(h)})
	})
	return nil
}

// Get returns the process-wide logger, initializing it on first use.
func Get() Logger {
	if l := root.Load(); l != nil {
		return l
	}
	_ = Init()
	return root.Load()
}

// Named returns a child of the process-wide logger tagged with name.
func Named(name string) Logger { return Get().Named(name) }

// SetLevel adjusts the minimum level of the process-wide logger.
func SetLevel(l slog.Level) { level.Set(l) }

// SetLevelString adjusts the minimum level from a textual level name.
// Unknown names leave the level unchanged.
func SetLevelString(s string) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		SetLevel(slog.LevelDebug)
	case "info":
		SetLevel(slog.LevelInfo)
	case "warn", "warning":
		SetLevel(slog.LevelWarn)
	case "error":
		SetLevel(slog.LevelError)
	}
}

// Sync flushes any buffered log entries. The slog JSON handler writes
// unbuffered, so this exists to keep shutdown paths uniform.
func Sync() error { return nil }

type slogLogger struct {
	l *slog.Logger
}

func (s *slogLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	s.l.LogAttrs(ctx, slog.LevelDebug, msg, fields...)
}

func (s *slogLogger) Info(ctx context.Context, msg string, fields ...Field) {
	s.l.LogAttrs(ctx, slog.LevelInfo, msg, fields...)
}

func (s *slogLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	s.l.LogAttrs(ctx, slog.LevelWarn, msg, fields...)
}

func (s *slogLogger) Error(ctx context.Context, msg string, fields ...Field) {
	s.l.LogAttrs(ctx, slog.LevelError, msg, fields...)
}

func (s *slogLogger) Named(name string) Logger {
	return &slogLogger{l: s.l.With(slog.String("component", name))}
}
