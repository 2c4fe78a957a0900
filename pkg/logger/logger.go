package logger

import (
	"context"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// log is swapped atomically; search sessions log from their own goroutines.
var log atomic.Pointer[zap.Logger]

type contextKey string

const (
	correlationIDContextKey contextKey = "correlation_id"
	sessionIDContextKey     contextKey = "session_id"
)

// Options tunes the global logger beyond the environment defaults.
type Options struct {
	Level       string
	ServiceName string
}

// Init initializes the global logger
func Init(environment string, opts ...Options) error {
	var config zap.Config

	if environment == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}

	if o.Level != "" {
		level, err := zapcore.ParseLevel(strings.ToLower(o.Level))
		if err != nil {
			return err
		}
		config.Level = zap.NewAtomicLevelAt(level)
	}

	built, err := config.Build()
	if err != nil {
		return err
	}
	if o.ServiceName != "" {
		built = built.With(zap.String("service", o.ServiceName))
	}

	log.Store(built)
	return nil
}

// Get returns the global logger instance
func Get() *zap.Logger {
	if l := log.Load(); l != nil {
		return l
	}
	// Fallback to a basic logger if Init wasn't called
	fallback, err := zap.NewDevelopment()
	if err != nil {
		fallback = zap.NewNop()
	}
	log.CompareAndSwap(nil, fallback)
	return log.Load()
}

// SetForTest swaps the global logger and returns a restore func.
func SetForTest(l *zap.Logger) func() {
	original := log.Swap(l)
	return func() { log.Store(original) }
}

// WithContext returns a logger enriched with context-aware fields like correlation ID.
func WithContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return Get()
	}

	l := Get()
	if correlationID := CorrelationIDFromContext(ctx); correlationID != "" {
		l = l.With(zap.String(string(correlationIDContextKey), correlationID))
	}
	if sessionID := SessionIDFromContext(ctx); sessionID != "" {
		l = l.With(zap.String(string(sessionIDContextKey), sessionID))
	}

	return l
}

// ContextWithCorrelationID returns a context containing the provided correlation ID.
func ContextWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, correlationIDContextKey, correlationID)
}

// CorrelationIDFromContext extracts a correlation ID from the provided context if available.
func CorrelationIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, correlationIDContextKey)
}

// ContextWithSessionID tags the context with a search session id.
func ContextWithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, sessionIDContextKey, sessionID)
}

// SessionIDFromContext extracts the search session id, if any.
func SessionIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, sessionIDContextKey)
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}

	if value, ok := ctx.Value(key).(string); ok {
		return value
	}

	return ""
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	Get().Info(msg, fields...)
}

// InfoContext logs an info message enriched with context-aware fields.
func InfoContext(ctx context.Context, msg string, fields ...zap.Field) {
	WithContext(ctx).Info(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	Get().Error(msg, fields...)
}

// ErrorContext logs an error message enriched with context-aware fields.
func ErrorContext(ctx context.Context, msg string, fields ...zap.Field) {
	WithContext(ctx).Error(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	Get().Debug(msg, fields...)
}

// DebugContext logs a debug message enriched with context-aware fields.
func DebugContext(ctx context.Context, msg string, fields ...zap.Field) {
	WithContext(ctx).Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	Get().Warn(msg, fields...)
}

// WarnContext logs a warning message enriched with context-aware fields.
func WarnContext(ctx context.Context, msg string, fields ...zap.Field) {
	WithContext(ctx).Warn(msg, fields...)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, fields ...zap.Field) {
	Get().Fatal(msg, fields...)
}

// Sync flushes any buffered log entries
func Sync() error {
	if l := log.Load(); l != nil {
		return l.Sync()
	}
	return nil
}
