// Package logging builds the zap loggers used by the errchain CLI.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xgx-io/xgx-errchain/internal/config"
)

// Options select the logger configuration.
type Options struct {
	// Verbose forces debug level regardless of Level.
	Verbose bool
	// Level is one of debug, info, warn or error. Empty means info.
	Level string
	// Format is console or json. Empty means console.
	Format string
}

// FromConfig derives Options from the logging section of cfg.
func FromConfig(cfg config.LoggingConfig, verbose bool) Options {
	return Options{Verbose: verbose, Level: cfg.Level, Format: cfg.Format}
}

// New builds a logger writing to stderr.
func New(opts Options) (*zap.Logger, error) {
	zc, err := Config(opts)
	if err != nil {
		return nil, err
	}
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// Config returns the zap configuration New would build from.
func Config(opts Options) (zap.Config, error) {
	zc := zap.NewProductionConfig()
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	zc.Sampling = nil

	switch strings.ToLower(opts.Format) {
	case "", "console":
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		zc.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	case "json":
		zc.Encoding = "json"
	default:
		return zap.Config{}, fmt.Errorf("unknown log format %q", opts.Format)
	}

	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.Set(opts.Level); err != nil {
			return zap.Config{}, fmt.Errorf("unknown log level %q", opts.Level)
		}
	}
	if opts.Verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc, nil
}

// Named returns a child of l, or a no-op logger when l is nil.
func Named(l *zap.Logger, name string) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l.Named(name)
}
