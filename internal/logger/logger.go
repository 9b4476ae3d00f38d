package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls how the process logger is built.
type Options struct {
	// Development switches to the human readable console encoder.
	Development bool
	// Level is a zap level name ("debug", "info", ...). Empty keeps the
	// preset's default.
	Level string
}

// New creates a new zap logger named "coinview".
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config

	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}

	if opts.Level != "" {
		lvl, err := zap.ParseAtomicLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("parsing log level: %w", err)
		}
		cfg.Level = lvl
	}

	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return log.Named("coinview"), nil
}

// Must creates a logger or panics
func Must(opts Options) *zap.Logger {
	log, err := New(opts)
	if err != nil {
		panic(err)
	}
	return log
}
