// Package resolver turns optional free-text place queries into coordinates
// through the geocode proxy.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/richxcame/maproute/pkg/geo"
	"github.com/richxcame/maproute/pkg/httpclient"
	"github.com/richxcame/maproute/pkg/logger"
	"go.uber.org/zap"
)

// Resolver maps a query to a coordinate, falling back when the query is blank.
type Resolver interface {
	Resolve(ctx context.Context, query string, fallback *geo.Coordinate) Resolution
}

// ProxyResolver asks the geocode proxy for the first match.
type ProxyResolver struct {
	client  *httpclient.Client
	timeout time.Duration
}

var _ Resolver = (*ProxyResolver)(nil)

// NewProxyResolver creates a resolver for the proxy at baseURL. Transient
// failures are retried with the default backoff.
func NewProxyResolver(baseURL string, timeout time.Duration, opts ...httpclient.Option) *ProxyResolver {
	opts = append([]httpclient.Option{httpclient.WithDefaultRetry(), httpclient.WithName("geocode_proxy")}, opts...)
	return &ProxyResolver{
		client:  httpclient.NewClient(baseURL, timeout, opts...),
		timeout: timeout,
	}
}

type proxyMatch struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Resolve never fails: problems come back as Unresolved with a reason.
func (r *ProxyResolver) Resolve(ctx context.Context, query string, fallback *geo.Coordinate) Resolution {
	query = strings.TrimSpace(query)
	if query == "" {
		if fallback == nil {
			return Unresolved(ErrNoFallback)
		}
		return Resolved(*fallback)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	res := r.lookup(ctx, query)
	if !res.IsResolved() {
		logger.WarnContext(ctx, "location not resolved",
			zap.String("query", query),
			zap.Error(res.Reason()),
		)
	}
	return res
}

func (r *ProxyResolver) lookup(ctx context.Context, query string) Resolution {
	body, err := r.client.Get(ctx, "/api/geocode", url.Values{"location": {query}}, nil)
	if err != nil {
		switch httpclient.StatusCode(err) {
		case http.StatusNotFound:
			return Unresolved(ErrNoMatch)
		case http.StatusBadRequest:
			return Unresolved(ErrInvalidQuery)
		}
		return Unresolved(fmt.Errorf("%w: %v", ErrProxyFailure, err))
	}

	var matches []proxyMatch
	if err := json.Unmarshal(body, &matches); err != nil {
		return Unresolved(fmt.Errorf("%w: %v", ErrMalformedReply, err))
	}
	if len(matches) == 0 {
		return Unresolved(ErrNoMatch)
	}

	coord, err := parseMatch(matches[0])
	if err != nil {
		return Unresolved(fmt.Errorf("%w: %v", ErrMalformedReply, err))
	}
	return Resolved(coord)
}

func parseMatch(m proxyMatch) (geo.Coordinate, error) {
	lat, err := strconv.ParseFloat(m.Lat, 64)
	if err != nil {
		return geo.Coordinate{}, err
	}
	lon, err := strconv.ParseFloat(m.Lon, 64)
	if err != nil {
		return geo.Coordinate{}, err
	}
	return geo.New(lat, lon)
}

// IsNoMatch reports whether res failed because the place does not exist.
func IsNoMatch(res Resolution) bool {
	return errors.Is(res.Reason(), ErrNoMatch)
}
