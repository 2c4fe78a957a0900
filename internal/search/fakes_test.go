package search

import (
	"context"
	"sync"

	"github.com/richxcame/maproute/internal/resolver"
	"github.com/richxcame/maproute/internal/routing"
	"github.com/richxcame/maproute/pkg/geo"
	"github.com/stretchr/testify/mock"
)

var (
	paris  = geo.Coordinate{Latitude: 48.8566, Longitude: 2.3522}
	berlin = geo.Coordinate{Latitude: 52.52, Longitude: 13.405}
	madrid = geo.Coordinate{Latitude: 40.4168, Longitude: -3.7038}
)

// fakeResolver answers from a fixed table and records every non-blank query.
type fakeResolver struct {
	mu      sync.Mutex
	places  map[string]geo.Coordinate
	queries []string
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{places: map[string]geo.Coordinate{
		"Paris":  paris,
		"Berlin": berlin,
		"Madrid": madrid,
	}}
}

func (f *fakeResolver) Resolve(_ context.Context, query string, fallback *geo.Coordinate) resolver.Resolution {
	if query == "" {
		if fallback == nil {
			return resolver.Unresolved(resolver.ErrNoFallback)
		}
		return resolver.Resolved(*fallback)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if c, ok := f.places[query]; ok {
		return resolver.Resolved(c)
	}
	return resolver.Unresolved(resolver.ErrNoMatch)
}

func (f *fakeResolver) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

type MockRouteFetcher struct {
	mock.Mock
}

func (m *MockRouteFetcher) FetchRoute(ctx context.Context, start, end *geo.Coordinate) (*routing.RouteResult, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*routing.RouteResult), args.Error(1)
}

func routeBetween(a, b geo.Coordinate) *routing.RouteResult {
	distance, duration := 12.35, 16.45
	return &routing.RouteResult{
		Path:            []geo.Coordinate{a, b},
		DistanceKm:      &distance,
		DurationMinutes: &duration,
		Provider:        "osrm",
	}
}

// recorder collects emitted states and stamps versions like a session does.
type recorder struct {
	states []State
}

func (r *recorder) emit(s State) State {
	if n := len(r.states); n > 0 {
		s.Version = r.states[n-1].Version + 1
	}
	r.states = append(r.states, s)
	return s
}

func (r *recorder) last() State {
	return r.states[len(r.states)-1]
}
