package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func TestInitTracerDisabled(t *testing.T) {
	tp, err := InitTracer(Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, tp)
}

func TestTraceUpstreamRecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(original)

	err := TraceUpstream(context.Background(), "test", "osrm", "route", func(ctx context.Context) error {
		return errors.New("unreachable")
	}, RouteProfileKey.String("driving"))
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "osrm.route", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}
