package routing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/richxcame/maproute/pkg/config"
	"github.com/richxcame/maproute/pkg/geo"
	"github.com/richxcame/maproute/pkg/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	paris  = geo.Coordinate{Latitude: 48.8566, Longitude: 2.3522}
	berlin = geo.Coordinate{Latitude: 52.52, Longitude: 13.405}
)

func newOSRMServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOSRMClient_RequestShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/route/v1/driving/2.352200,48.856600;13.405000,52.520000", r.URL.Path)
		assert.Equal(t, "full", r.URL.Query().Get("overview"))
		assert.Equal(t, "geojson", r.URL.Query().Get("geometries"))
		w.Write([]byte(`{"code":"Ok","routes":[{"distance":1054321.7,"duration":36000,"geometry":{"type":"LineString","coordinates":[[2.3522,48.8566],[7.0,50.5],[13.405,52.52]]}}]}`))
	}))
	defer server.Close()

	client := NewOSRMClient(config.RouterConfig{BaseURL: server.URL, TimeoutSeconds: 2}, nil)
	assert.Equal(t, "driving", client.Profile())

	result, err := client.Route(context.Background(), paris, berlin)
	require.NoError(t, err)
	require.Len(t, result.Path, 3)
	assert.Equal(t, paris, result.Path[0])
	assert.Equal(t, berlin, result.Path[2])
	assert.Equal(t, 1054.32, *result.DistanceKm)
	assert.Equal(t, 600.0, *result.DurationMinutes)
}

func TestOSRMClient_NoRoute(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "NoRoute with 400", status: http.StatusBadRequest, body: `{"code":"NoRoute","message":"Impossible route between points"}`},
		{name: "NoSegment with 400", status: http.StatusBadRequest, body: `{"code":"NoSegment","message":"Could not find a matching segment"}`},
		{name: "empty routes", status: http.StatusOK, body: `{"code":"Ok","routes":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newOSRMServer(t, tt.status, tt.body)
			client := NewOSRMClient(config.RouterConfig{BaseURL: server.URL, TimeoutSeconds: 2}, nil)

			result, err := client.Route(context.Background(), paris, berlin)
			require.NoError(t, err)
			assert.True(t, result.IsEmpty())
		})
	}
}

func TestOSRMClient_Failures(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		server := newOSRMServer(t, http.StatusInternalServerError, `oops`)
		client := NewOSRMClient(config.RouterConfig{BaseURL: server.URL, TimeoutSeconds: 2}, nil)

		_, err := client.Route(context.Background(), paris, berlin)
		assert.Equal(t, http.StatusInternalServerError, httpclient.StatusCode(err))
	})

	t.Run("other 400", func(t *testing.T) {
		server := newOSRMServer(t, http.StatusBadRequest, `{"code":"InvalidQuery"}`)
		client := NewOSRMClient(config.RouterConfig{BaseURL: server.URL, TimeoutSeconds: 2}, nil)

		_, err := client.Route(context.Background(), paris, berlin)
		assert.Equal(t, http.StatusBadRequest, httpclient.StatusCode(err))
	})

	t.Run("undecodable body", func(t *testing.T) {
		server := newOSRMServer(t, http.StatusOK, `<html>`)
		client := NewOSRMClient(config.RouterConfig{BaseURL: server.URL, TimeoutSeconds: 2}, nil)

		_, err := client.Route(context.Background(), paris, berlin)
		assert.ErrorContains(t, err, "decode osrm response")
	})
}
