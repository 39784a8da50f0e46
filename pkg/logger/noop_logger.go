package logger

import (
	"context"

	"github.com/fraudguard/fraudguard/pkg/constants"
)

// noopLogger discards all log entries. Used in tests and as a safe default.
type noopLogger struct{}

// NewNoop returns a Logger that discards everything.
func NewNoop() Logger {
	return &noopLogger{}
}

func (n *noopLogger) Debug(ctx context.Context, msg string, fields ...Fields)            {}
func (n *noopLogger) Info(ctx context.Context, msg string, fields ...Fields)             {}
func (n *noopLogger) Warn(ctx context.Context, msg string, fields ...Fields)             {}
func (n *noopLogger) Error(ctx context.Context, msg string, err error, fields ...Fields) {}
func (n *noopLogger) Fatal(ctx context.Context, msg string, err error, fields ...Fields) {}
func (n *noopLogger) WithFields(fields Fields) Logger                                    { return n }
func (n *noopLogger) WithComponent(component string) Logger                              { return n }
func (n *noopLogger) SetLevel(level constants.LogLevel)                                  {}
