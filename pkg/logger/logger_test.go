package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestContextWithCorrelationID(t *testing.T) {
	ctx := ContextWithCorrelationID(context.Background(), "test-id")
	assert.Equal(t, "test-id", CorrelationIDFromContext(ctx))
}

func TestCorrelationIDFromNilContext(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	assert.Empty(t, CorrelationIDFromContext(nil))
}

func TestWithContextAddsCorrelationAndSessionFields(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	restore := SetForTest(zap.New(core))
	defer restore()

	ctx := ContextWithCorrelationID(context.Background(), "context-id")
	ctx = ContextWithSessionID(ctx, "session-1")

	InfoContext(ctx, "test message")

	entries := recorded.All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "context-id", fields["correlation_id"])
	assert.Equal(t, "session-1", fields["session_id"])
}

func TestWithContextWithoutFields(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	restore := SetForTest(zap.New(core))
	defer restore()

	DebugContext(context.Background(), "plain")

	entries := recorded.All()
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].ContextMap())
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	original := log.Load()
	defer func() { log.Store(original) }()

	err := Init("development", Options{Level: "loud"})
	assert.Error(t, err)
}

func TestInitAppliesLevel(t *testing.T) {
	original := log.Load()
	defer func() { log.Store(original) }()

	require.NoError(t, Init("production", Options{Level: "warn", ServiceName: "geocode"}))
	assert.False(t, Get().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, Get().Core().Enabled(zapcore.WarnLevel))
}
