package telemetry

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type requestContextKey struct{}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestContextKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(requestContextKey{}).(string)
	return id, ok && id != ""
}

func NewRequestID() string {
	return uuid.NewString()
}

// LoggerWithRequest attaches the request id carried by ctx, if any.
func LoggerWithRequest(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if id, ok := RequestIDFromContext(ctx); ok {
		return logger.With(zap.String(FieldRequestID, id))
	}
	return logger
}
