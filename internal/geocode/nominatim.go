package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/richxcame/maproute/pkg/config"
	"github.com/richxcame/maproute/pkg/httpclient"
	"github.com/richxcame/maproute/pkg/logger"
	"github.com/richxcame/maproute/pkg/resilience"
	"github.com/richxcame/maproute/pkg/tracing"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const tracerName = "maproute/geocode"

// Geocoder resolves free text into ranked candidate places.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]Place, error)
}

// NominatimClient talks to a Nominatim-compatible /search endpoint.
type NominatimClient struct {
	http    *httpclient.Client
	email   string
	limiter *rate.Limiter
	breaker *resilience.CircuitBreaker
}

var _ Geocoder = (*NominatimClient)(nil)

// NewNominatimClient builds a client honouring the public usage policy:
// an identifying User-Agent and at most RatePerSecond requests per second.
func NewNominatimClient(cfg config.GeocoderConfig, breaker *resilience.CircuitBreaker) *NominatimClient {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	return &NominatimClient{
		http: httpclient.NewClient(cfg.BaseURL, cfg.Timeout(),
			httpclient.WithHeader("User-Agent", cfg.UserAgent),
			httpclient.WithName("nominatim"),
		),
		email:   cfg.Email,
		limiter: rate.NewLimiter(limit, 1),
		breaker: breaker,
	}
}

// Search returns the backend's matches in backend order.
func (c *NominatimClient) Search(ctx context.Context, query string) ([]Place, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("geocoder rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", query)
	if c.email != "" {
		params.Set("email", c.email)
	}

	var places []Place
	err := tracing.TraceUpstream(ctx, tracerName, "nominatim", "search", func(ctx context.Context) error {
		body, err := resilience.Call(ctx, c.breaker, func(ctx context.Context) ([]byte, error) {
			return c.http.Get(ctx, "/search", params, nil)
		})
		if err != nil {
			return err
		}

		logger.DebugContext(ctx, "nominatim response",
			zap.String("query", query),
			zap.ByteString("payload", body),
		)

		if err := json.Unmarshal(body, &places); err != nil {
			return fmt.Errorf("decode nominatim response: %w", err)
		}

		tracing.AddSpanAttributes(ctx, tracing.GeocodeMatchesKey.Int(len(places)))
		return nil
	}, tracing.GeocodeQueryKey.String(query))
	if err != nil {
		return nil, err
	}

	return places, nil
}
