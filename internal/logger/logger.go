// Package logger builds the zap loggers shared by the CLI, the web server and
// the pipeline.
package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogMod string

const (
	DevelopmentMod LogMod = "development"
	ProductionMod  LogMod = "production"
)

type Config struct {
	LogMod   LogMod `mapstructure:"mod"`
	LogLevel string `mapstructure:"level"`
}

type ctxKey struct{}

var globalLogger = zap.NewNop() //nolint:gochecknoglobals // replaced once at startup

func newZapCfg(mod LogMod, level zapcore.Level) zap.Config {
	var cfg zap.Config

	switch mod {
	case ProductionMod:
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level.SetLevel(level)

	return cfg
}

// NewFromConfig builds a logger and installs it as the global one.
func NewFromConfig(cfg Config, opts ...zap.Option) (*zap.Logger, error) {
	levelName := cfg.LogLevel
	if levelName == "" {
		levelName = "info"
	}

	level, err := zapcore.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	lg, err := newZapCfg(cfg.LogMod, level).Build(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	globalLogger = lg.With(zap.String("service", "transcritic"))

	return globalLogger, nil
}

// WrapInCtx attaches lg to ctx so request handlers can enrich it.
func WrapInCtx(ctx context.Context, lg *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, lg)
}

// FromCtx returns the logger stored in ctx, falling back to fallback.
func FromCtx(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if ctx != nil {
		if lg, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && lg != nil {
			return lg
		}
	}
	if fallback != nil {
		return fallback
	}
	return globalLogger
}
