package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/maproute/internal/geocode"
	"github.com/richxcame/maproute/internal/mapview"
	"github.com/richxcame/maproute/internal/resolver"
	"github.com/richxcame/maproute/internal/routing"
	"github.com/richxcame/maproute/pkg/cache"
	"github.com/richxcame/maproute/pkg/config"
	"github.com/richxcame/maproute/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upstreams struct {
	geocodeCalls int32
	routeCalls   int32
	lastRoute    atomic.Value

	resolver *resolver.ProxyResolver
	routes   *routing.Service
}

// newUpstreams wires the real proxy, resolver and route service against
// fake Nominatim and OSRM backends.
func newUpstreams(t *testing.T) *upstreams {
	t.Helper()
	u := &upstreams{}

	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.geocodeCalls, 1)
		switch r.URL.Query().Get("q") {
		case "Paris":
			w.Write([]byte(`[{"lat":"48.8566","lon":"2.3522","display_name":"Paris"}]`))
		case "Berlin":
			w.Write([]byte(`[{"lat":"52.52","lon":"13.405","display_name":"Berlin"}]`))
		default:
			w.Write([]byte(`[]`))
		}
	}))
	t.Cleanup(nominatim.Close)

	engine := gin.New()
	geocodeSvc := geocode.NewService(
		geocode.NewNominatimClient(config.GeocoderConfig{BaseURL: nominatim.URL, UserAgent: "maproute-test", TimeoutSeconds: 2}, nil),
		nil, time.Hour, 2*time.Second,
	)
	geocode.NewHandler(geocodeSvc).RegisterRoutes(engine)
	proxy := httptest.NewServer(engine)
	t.Cleanup(proxy.Close)

	osrm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.routeCalls, 1)
		u.lastRoute.Store(r.URL.Path)

		pair := strings.TrimPrefix(r.URL.Path, "/route/v1/driving/")
		var lon1, lat1, lon2, lat2 float64
		_, err := fmt.Sscanf(strings.Replace(pair, ";", ",", 1), "%f,%f,%f,%f", &lon1, &lat1, &lon2, &lat2)
		assert.NoError(t, err)

		fmt.Fprintf(w, `{"code":"Ok","routes":[{"distance":12345,"duration":987,"geometry":{"type":"LineString","coordinates":[[%f,%f],[7.0,50.5],[%f,%f]]}}]}`,
			lon1, lat1, lon2, lat2)
	}))
	t.Cleanup(osrm.Close)

	u.resolver = resolver.NewProxyResolver(proxy.URL, 2*time.Second)
	u.routes = routing.NewService(
		routing.NewOSRMClient(config.RouterConfig{BaseURL: osrm.URL, TimeoutSeconds: 2}, nil),
		nil, time.Minute, 2*time.Second,
	)
	return u
}

func TestScenario_ParisToBerlin(t *testing.T) {
	u := newUpstreams(t)
	store := cache.NewMemory(0)
	defer store.Close()

	manager := NewManager(NewWorkflow(u.resolver, u.routes, 2*time.Second), NewStore(store, time.Hour), nil, ManagerConfig{})
	defer manager.Stop()

	ctx := context.Background()
	created, err := manager.Create(ctx)
	require.NoError(t, err)

	state, err := manager.Dispatch(ctx, created.SessionID, Search{InitialQuery: "Paris", DestinationQuery: "Berlin"})
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&u.geocodeCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&u.routeCalls))
	assert.Equal(t, "/route/v1/driving/2.352200,48.856600;13.405000,52.520000", u.lastRoute.Load())

	assert.Equal(t, PhaseDone, state.Phase)
	assert.Equal(t, 12.35, *state.Route.DistanceKm)
	assert.Equal(t, 16.45, *state.Route.DurationMinutes)

	view := mapview.Render(MapInput(state))
	require.NotNil(t, view.Polyline)
	assert.Len(t, view.Polyline.Positions, 3)
	assert.Equal(t, "12.35 km", view.Distance)
	assert.Equal(t, "16.45 minutes", view.Duration)
	assert.Len(t, view.Markers, 2)
	assert.NotNil(t, view.FitBounds)
}

func TestScenario_UnknownDestination(t *testing.T) {
	u := newUpstreams(t)
	store := cache.NewMemory(0)
	defer store.Close()

	manager := NewManager(NewWorkflow(u.resolver, u.routes, 2*time.Second), NewStore(store, time.Hour), nil, ManagerConfig{})
	defer manager.Stop()

	ctx := context.Background()
	created, err := manager.Create(ctx)
	require.NoError(t, err)

	state, err := manager.Dispatch(ctx, created.SessionID, Search{InitialQuery: "Paris", DestinationQuery: "zzzz-no-such-place"})
	require.Error(t, err)
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Nil(t, state.Route)
	assert.Equal(t, int32(0), atomic.LoadInt32(&u.routeCalls))
}

func TestScenario_ResolveThenRouteMatchesWorkflow(t *testing.T) {
	u := newUpstreams(t)
	ctx := context.Background()

	from, ok := u.resolver.Resolve(ctx, "Paris", nil).Coordinate()
	require.True(t, ok)
	to, ok := u.resolver.Resolve(ctx, "Berlin", nil).Coordinate()
	require.True(t, ok)

	direct, err := u.routes.FetchRoute(ctx, &from, &to)
	require.NoError(t, err)

	rec := &recorder{}
	wf := NewWorkflow(u.resolver, u.routes, 2*time.Second)
	require.NoError(t, wf.Apply(ctx, NewState("s", geo.Coordinate{}, time.Now()), Search{InitialQuery: "Paris", DestinationQuery: "Berlin"}, rec.emit))

	viaWorkflow := rec.last().Route
	assert.Equal(t, direct.Path, viaWorkflow.Path)
	assert.Equal(t, *direct.DistanceKm, *viaWorkflow.DistanceKm)
	assert.Equal(t, *direct.DurationMinutes, *viaWorkflow.DurationMinutes)
}
