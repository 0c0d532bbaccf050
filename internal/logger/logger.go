package logger

import (
	"context"
	"os"

	"go.uber.org/zap"
)

type ctxKey string

const RequestIDKey ctxKey = "request_id"

// WithRequestID attaches a request id that WithCtx will log.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

var logger *zap.Logger

func init() {
	if os.Getenv("DEBUG") == "true" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
}

// L returns the process-wide logger.
func L() *zap.Logger {
	return logger
}

// Replace swaps the process-wide logger, e.g. with zap.NewNop() in tests.
func Replace(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

// WithCtx returns a logger carrying the request id found on ctx.
func WithCtx(ctx context.Context) *zap.Logger {
	fields := []zap.Field{}

	if v, ok := ctx.Value(RequestIDKey).(string); ok && v != "" {
		fields = append(fields, zap.String("request_id", v))
	}

	return logger.With(fields...)
}

func Sync() {
	_ = logger.Sync()
}
