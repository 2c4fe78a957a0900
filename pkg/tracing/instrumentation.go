package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attributes shared by the geocoding and routing components.
const (
	UpstreamKey        = attribute.Key("upstream.name")
	GeocodeQueryKey    = attribute.Key("geocode.query")
	GeocodeMatchesKey  = attribute.Key("geocode.matches")
	RouteProfileKey    = attribute.Key("route.profile")
	RouteDistanceKey   = attribute.Key("route.distance_km")
	RouteDurationKey   = attribute.Key("route.duration_minutes")
	RoutePointsKey     = attribute.Key("route.points")
	CacheHitKey        = attribute.Key("cache.hit")
	SearchSessionIDKey = attribute.Key("search.session_id")
	SearchPhaseKey     = attribute.Key("search.phase")
)

// TraceUpstream wraps a call to an external service in a client span.
func TraceUpstream(ctx context.Context, tracerName, upstream, operation string, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := StartSpan(ctx, tracerName, upstream+"."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(attrs, UpstreamKey.String(upstream))...),
	)
	defer span.End()

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	return err
}

// AddSpanAttributes adds attributes to the current span
func AddSpanAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attrs...)
	}
}
