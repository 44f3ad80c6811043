package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	id, ok := RequestIDFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "req-1", id)

	_, ok = RequestIDFromContext(context.Background())
	require.False(t, ok)

	require.Equal(t, context.Background(), WithRequestID(context.Background(), ""))
}

func TestNewRequestID_Unique(t *testing.T) {
	require.NotEqual(t, NewRequestID(), NewRequestID())
	require.Len(t, NewRequestID(), 36)
}

func TestLoggerWithRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := LoggerWithRequest(WithRequestID(context.Background(), "req-2"), zap.New(core))
	logger.Info("hello")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "req-2", entries[0].ContextMap()[FieldRequestID])
}
