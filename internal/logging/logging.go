package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ggranum/fetherbrik/internal/environment"
)

// Option adjusts the logger configuration before it is built.
type Option func(*zap.Config)

// WithLevel sets the minimum enabled level.
func WithLevel(level zapcore.Level) Option {
	return func(cfg *zap.Config) {
		cfg.Level = zap.NewAtomicLevelAt(level)
	}
}

// WithConsole switches to the human-readable console encoder.
func WithConsole() Option {
	return func(cfg *zap.Config) {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
}

// ForEnvironment returns the options used for env: console output at debug
// level for development, JSON at debug for test, JSON at info otherwise.
func ForEnvironment(env environment.Environment) []Option {
	switch env {
	case environment.Development:
		return []Option{WithConsole(), WithLevel(zapcore.DebugLevel)}
	case environment.Test:
		return []Option{WithLevel(zapcore.DebugLevel)}
	default:
		return []Option{WithLevel(zapcore.InfoLevel)}
	}
}

// New creates a production-ready structured logger configured for JSON output.
func New(opts ...Option) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.StacktraceKey = "stacktrace"
	cfg.DisableStacktrace = false

	for _, opt := range opts {
		opt(&cfg)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
