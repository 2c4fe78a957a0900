package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/maproute/pkg/geo"
	"github.com/richxcame/maproute/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := validation.RegisterGinBinding(); err != nil {
		panic(err)
	}
}

type stubResolver struct {
	gotQuery    string
	gotFallback *geo.Coordinate
	result      Resolution
}

func (s *stubResolver) Resolve(_ context.Context, query string, fallback *geo.Coordinate) Resolution {
	s.gotQuery = query
	s.gotFallback = fallback
	return s.result
}

func TestHandler_Resolve(t *testing.T) {
	tests := []struct {
		name         string
		url          string
		result       Resolution
		wantStatus   int
		wantResolved bool
		wantFallback *geo.Coordinate
	}{
		{
			name:         "resolved",
			url:          "/api/v1/resolve?q=Paris",
			result:       Resolved(geo.Coordinate{Latitude: 48.8566, Longitude: 2.3522}),
			wantStatus:   http.StatusOK,
			wantResolved: true,
		},
		{
			name:         "fallback passed through",
			url:          "/api/v1/resolve?lat=10&lon=20",
			result:       Resolved(geo.Coordinate{Latitude: 10, Longitude: 20}),
			wantStatus:   http.StatusOK,
			wantResolved: true,
			wantFallback: &geo.Coordinate{Latitude: 10, Longitude: 20},
		},
		{
			name:       "unresolved",
			url:        "/api/v1/resolve?q=Atlantis",
			result:     Unresolved(ErrNoMatch),
			wantStatus: http.StatusOK,
		},
		{
			name:       "half a fallback",
			url:        "/api/v1/resolve?lat=10",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "latitude out of range",
			url:        "/api/v1/resolve?lat=100&lon=20",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubResolver{result: tt.result}
			router := gin.New()
			NewHandler(stub).RegisterRoutes(router.Group("/api/v1"))

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))
			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp struct {
				Success bool `json:"success"`
				Data    View `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.True(t, resp.Success)
			assert.Equal(t, tt.wantResolved, resp.Data.Resolved)
			assert.Equal(t, tt.wantFallback, stub.gotFallback)
		})
	}
}
