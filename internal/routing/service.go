package routing

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/richxcame/maproute/pkg/cache"
	"github.com/richxcame/maproute/pkg/common"
	"github.com/richxcame/maproute/pkg/geo"
	"github.com/richxcame/maproute/pkg/logger"
	"github.com/richxcame/maproute/pkg/tracing"
	"go.uber.org/zap"
)

// Messages surfaced to users.
const (
	MsgInvalidEndpoints = "Please enter valid source and destination."
	MsgFetchFailed      = "Failed to fetch route"
)

// Service fetches routes with caching.
type Service struct {
	router   Router
	cache    cache.Store
	cacheTTL time.Duration
	timeout  time.Duration
}

// NewService creates a route service. A nil store disables caching.
func NewService(router Router, store cache.Store, cacheTTL, timeout time.Duration) *Service {
	return &Service{
		router:   router,
		cache:    store,
		cacheTTL: cacheTTL,
		timeout:  timeout,
	}
}

// FetchRoute returns the route between start and end.
//
// A missing endpoint is a UserError and no request is made. A backend with
// no route yields an empty result and nil error; everything else that goes
// wrong upstream is an UpstreamError.
func (s *Service) FetchRoute(ctx context.Context, start, end *geo.Coordinate) (*RouteResult, error) {
	if start == nil || end == nil {
		recordFetch(outcomeInvalid)
		return nil, common.NewUserError(MsgInvalidEndpoints)
	}

	key := cache.Keys.Route(s.router.Profile(), start.Latitude, start.Longitude, end.Latitude, end.Longitude)
	if s.cache != nil {
		var cached RouteResult
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			recordFetch(outcomeHit)
			tracing.AddSpanAttributes(ctx, tracing.CacheHitKey.Bool(true))
			cached.CacheHit = true
			return &cached, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			logger.WarnContext(ctx, "route cache read failed", zap.Error(err))
		}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.router.Route(ctx, *start, *end)
	if err != nil {
		recordFetch(outcomeUpstreamError)
		logger.ErrorContext(ctx, "route fetch failed",
			zap.String("from", start.String()),
			zap.String("to", end.String()),
			zap.Error(err),
		)
		return nil, common.NewUpstreamError(http.StatusBadGateway, MsgFetchFailed, err)
	}

	if result.IsEmpty() {
		recordFetch(outcomeEmpty)
		logger.InfoContext(ctx, "no route between points",
			zap.String("from", start.String()),
			zap.String("to", end.String()),
		)
		return result, nil
	}

	recordFetch(outcomeFound)
	routeDistanceKm.Observe(*result.DistanceKm)
	tracing.AddSpanAttributes(ctx,
		tracing.RouteDistanceKey.Float64(*result.DistanceKm),
		tracing.RouteDurationKey.Float64(*result.DurationMinutes),
	)
	logger.InfoContext(ctx, "route fetched",
		zap.Float64("distance_km", *result.DistanceKm),
		zap.Float64("duration_minutes", *result.DurationMinutes),
		zap.Int("points", len(result.Path)),
	)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
			logger.WarnContext(ctx, "route cache write failed", zap.Error(err))
		}
	}

	return result, nil
}
