// Package logger defines the structured logging interface used across the
// FraudGuard service. The production implementation lives in
// internal/infrastructure/monitoring and is backed by zap.
package logger

import (
	"context"

	"github.com/fraudguard/fraudguard/pkg/constants"
)

// Fields is a set of key-value pairs attached to a log entry.
type Fields map[string]interface{}

// Logger is the structured logging interface.
type Logger interface {
	// Debug logs a debug message
	Debug(ctx context.Context, msg string, fields ...Fields)

	// Info logs an informational message
	Info(ctx context.Context, msg string, fields ...Fields)

	// Warn logs a warning message
	Warn(ctx context.Context, msg string, fields ...Fields)

	// Error logs an error message with its cause
	Error(ctx context.Context, msg string, err error, fields ...Fields)

	// Fatal logs a fatal message and exits the application
	Fatal(ctx context.Context, msg string, err error, fields ...Fields)

	// WithFields returns a logger with additional base fields
	WithFields(fields Fields) Logger

	// WithComponent returns a logger scoped to a component name
	WithComponent(component string) Logger

	// SetLevel adjusts the severity threshold at runtime
	SetLevel(level constants.LogLevel)
}

// ParseLevel maps a config string to a LogLevel, defaulting to info.
func ParseLevel(s string) constants.LogLevel {
	switch s {
	case "debug":
		return constants.LogLevelDebug
	case "warn", "warning":
		return constants.LogLevelWarn
	case "error":
		return constants.LogLevelError
	case "fatal":
		return constants.LogLevelFatal
	default:
		return constants.LogLevelInfo
	}
}
