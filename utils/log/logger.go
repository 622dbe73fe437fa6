package log

import (
	"context"
	"os"

	"go.uber.org/zap"
)

var logger *zap.Logger

func init() {
	if os.Getenv("DEBUG") == "true" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
}

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	channelIDKey ctxKey = "channel_id"
	personaIDKey ctxKey = "persona_id"
)

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func WithChannelID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, channelIDKey, id)
}

func WithPersonaID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, personaIDKey, id)
}

// WithCtx returns the package logger annotated with the request, channel and
// persona ids carried by ctx.
func WithCtx(ctx context.Context) *zap.Logger {
	fields := []zap.Field{}

	for _, key := range []ctxKey{requestIDKey, channelIDKey, personaIDKey} {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			fields = append(fields, zap.String(string(key), v))
		}
	}

	return logger.With(fields...)
}

func With(fields ...zap.Field) *zap.Logger {
	return logger.With(fields...)
}

// Sync flushes buffered entries; call it before the process exits.
func Sync() {
	_ = logger.Sync()
}
