package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/richxcame/maproute/pkg/config"
	"github.com/richxcame/maproute/pkg/geo"
	"github.com/richxcame/maproute/pkg/httpclient"
	"github.com/richxcame/maproute/pkg/logger"
	"github.com/richxcame/maproute/pkg/resilience"
	"github.com/richxcame/maproute/pkg/tracing"
	"go.uber.org/zap"
)

const (
	tracerName   = "maproute/routing"
	providerOSRM = "osrm"
)

// Router computes a driving route between two points.
type Router interface {
	Route(ctx context.Context, start, end geo.Coordinate) (*RouteResult, error)
	Profile() string
}

// OSRMClient calls the OSRM /route/v1 service.
type OSRMClient struct {
	http    *httpclient.Client
	profile string
	breaker *resilience.CircuitBreaker
}

var _ Router = (*OSRMClient)(nil)

// NewOSRMClient creates a client for the configured OSRM backend.
func NewOSRMClient(cfg config.RouterConfig, breaker *resilience.CircuitBreaker) *OSRMClient {
	profile := cfg.Profile
	if profile == "" {
		profile = "driving"
	}

	return &OSRMClient{
		http:    httpclient.NewClient(cfg.BaseURL, cfg.Timeout(), httpclient.WithName(providerOSRM)),
		profile: profile,
		breaker: breaker,
	}
}

// Profile returns the OSRM profile used for requests.
func (c *OSRMClient) Profile() string {
	return c.profile
}

// Route fetches the first route OSRM offers. NoRoute and NoSegment answers
// become an empty result.
func (c *OSRMClient) Route(ctx context.Context, start, end geo.Coordinate) (*RouteResult, error) {
	path := fmt.Sprintf("/route/v1/%s/%f,%f;%f,%f",
		url.PathEscape(c.profile),
		start.Longitude, start.Latitude,
		end.Longitude, end.Latitude,
	)
	query := url.Values{}
	query.Set("overview", "full")
	query.Set("geometries", "geojson")

	var result *RouteResult
	err := tracing.TraceUpstream(ctx, tracerName, providerOSRM, "route", func(ctx context.Context) error {
		body, err := resilience.Call(ctx, c.breaker, func(ctx context.Context) ([]byte, error) {
			body, err := c.http.Get(ctx, path, query, nil)
			// a no-route answer is a valid outcome and must not trip the breaker
			if noRoute(err) {
				return nil, nil
			}
			return body, err
		})
		if err != nil {
			return err
		}
		if body == nil {
			result = EmptyRoute(providerOSRM)
			return nil
		}

		var resp osrmResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("decode osrm response: %w", err)
		}

		result, err = convertRoute(&resp)
		if err != nil {
			return err
		}

		tracing.AddSpanAttributes(ctx, tracing.RoutePointsKey.Int(len(result.Path)))
		return nil
	}, tracing.RouteProfileKey.String(c.profile))
	if err != nil {
		return nil, err
	}

	return result, nil
}

func noRoute(err error) bool {
	var httpErr *httpclient.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadRequest {
		return false
	}

	var resp osrmResponse
	if json.Unmarshal([]byte(httpErr.Body), &resp) != nil {
		return false
	}
	if resp.Code == osrmCodeNoRoute || resp.Code == osrmCodeNoSegment {
		logger.Debug("osrm found no route", zap.String("code", resp.Code), zap.String("message", resp.Message))
		return true
	}
	return false
}

func convertRoute(resp *osrmResponse) (*RouteResult, error) {
	switch resp.Code {
	case osrmCodeOK, "":
	case osrmCodeNoRoute, osrmCodeNoSegment:
		return EmptyRoute(providerOSRM), nil
	default:
		return nil, fmt.Errorf("osrm error: %s %s", resp.Code, resp.Message)
	}

	if len(resp.Routes) == 0 {
		return EmptyRoute(providerOSRM), nil
	}

	route := resp.Routes[0]
	path := make([]geo.Coordinate, 0, len(route.Geometry.Coordinates))
	for _, point := range route.Geometry.Coordinates {
		path = append(path, geo.Coordinate{Latitude: point[1], Longitude: point[0]})
	}

	distance := MetersToKm(route.Distance)
	duration := SecondsToMinutes(route.Duration)

	return &RouteResult{
		Path:            path,
		DistanceKm:      &distance,
		DurationMinutes: &duration,
		Provider:        providerOSRM,
		FetchedAt:       time.Now().UTC(),
	}, nil
}
