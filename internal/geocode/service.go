package geocode

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/richxcame/maproute/pkg/cache"
	"github.com/richxcame/maproute/pkg/common"
	"github.com/richxcame/maproute/pkg/logger"
	"github.com/richxcame/maproute/pkg/tracing"
	"go.uber.org/zap"
)

// Service answers geocode queries from cache or the backend.
type Service struct {
	geocoder Geocoder
	cache    cache.Store
	cacheTTL time.Duration
	timeout  time.Duration
}

// NewService wires a geocoder with an optional cache. A nil cache disables caching.
func NewService(geocoder Geocoder, store cache.Store, cacheTTL, timeout time.Duration) *Service {
	return &Service{
		geocoder: geocoder,
		cache:    store,
		cacheTTL: cacheTTL,
		timeout:  timeout,
	}
}

// Lookup returns the backend's first match for location.
//
// Blank input is rejected before any outbound call. Zero matches yield a
// NotFound error; any backend problem yields a 500 whose cause is logged
// but not exposed.
func (s *Service) Lookup(ctx context.Context, location string) (*Match, error) {
	query := strings.TrimSpace(location)
	if query == "" {
		recordLookup(outcomeInvalid)
		return nil, common.NewBadRequestError(MsgLocationRequired, nil)
	}

	logger.InfoContext(ctx, "geocode lookup", zap.String("location", query))

	key := cache.Keys.Geocode(query)
	if s.cache != nil {
		var cached Match
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			recordLookup(outcomeHit)
			tracing.AddSpanAttributes(ctx, tracing.CacheHitKey.Bool(true))
			return &cached, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			logger.WarnContext(ctx, "geocode cache read failed", zap.Error(err))
		}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	places, err := s.geocoder.Search(ctx, query)
	if err != nil {
		recordLookup(outcomeUpstreamError)
		logger.ErrorContext(ctx, "geocoding backend failed", zap.String("location", query), zap.Error(err))
		return nil, common.NewUpstreamError(http.StatusInternalServerError, MsgInternal, err)
	}

	if len(places) == 0 {
		recordLookup(outcomeNotFound)
		return nil, common.NewNotFoundError(MsgNoCoordinates, nil)
	}

	coord, err := places[0].Coordinate()
	if err != nil {
		recordLookup(outcomeUpstreamError)
		logger.ErrorContext(ctx, "geocoding backend returned malformed coordinates",
			zap.String("location", query),
			zap.String("lat", places[0].Lat),
			zap.String("lon", places[0].Lon),
			zap.Error(err),
		)
		return nil, common.NewUpstreamError(http.StatusInternalServerError, MsgInternal, err)
	}

	match := &Match{Lat: coord.Latitude, Lon: coord.Longitude}
	recordLookup(outcomeFound)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, match, s.cacheTTL); err != nil {
			logger.WarnContext(ctx, "geocode cache write failed", zap.Error(err))
		}
	}

	return match, nil
}
