package logger

import (
	"context"

	"github.com/opencare/tabel/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Module provides a zap logger configured for the current environment.
var Module = fx.Provide(New)

// New returns a zap logger with JSON output in production and console
// output in development, and replaces the zap globals.
func New(cfg config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.OutputPaths = []string{"stdout"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zapCfg.Build(zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, err
	}
	logger = logger.With(
		zap.String("service", cfg.AppName),
		zap.String("version", cfg.AppVersion),
	)
	zap.ReplaceGlobals(logger)
	return logger, nil
}

type requestIDKey struct{}

// WithRequestID stores the request correlation ID in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// FromContext returns the global logger annotated with the request ID, if any.
func FromContext(ctx context.Context) *zap.Logger {
	log := zap.L()
	if ctx == nil {
		return log
	}
	if requestID, ok := ctx.Value(requestIDKey{}).(string); ok && requestID != "" {
		return log.With(zap.String("request_id", requestID))
	}
	return log
}
