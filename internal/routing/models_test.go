package routing

import (
	"testing"

	"github.com/richxcame/maproute/pkg/geo"
	"github.com/stretchr/testify/assert"
)

func TestUnitConversion(t *testing.T) {
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{name: "12345 m", got: MetersToKm(12345), want: 12.35},
		{name: "987 s", got: SecondsToMinutes(987), want: 16.45},
		{name: "zero distance", got: MetersToKm(0), want: 0},
		{name: "sub-unit distance", got: MetersToKm(4), want: 0},
		{name: "half rounds up", got: MetersToKm(1005), want: 1.01},
		{name: "Paris to Berlin", got: MetersToKm(1054321.7), want: 1054.32},
		{name: "hour", got: SecondsToMinutes(3600), want: 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestRouteResultIsEmpty(t *testing.T) {
	var nilResult *RouteResult
	assert.True(t, nilResult.IsEmpty())
	assert.True(t, EmptyRoute("osrm").IsEmpty())

	d := 1.0
	assert.False(t, (&RouteResult{DistanceKm: &d}).IsEmpty())
	assert.False(t, (&RouteResult{Path: []geo.Coordinate{{Latitude: 1, Longitude: 2}}}).IsEmpty())
}

func TestConvertRoute(t *testing.T) {
	resp := &osrmResponse{
		Code: "Ok",
		Routes: []osrmRoute{
			{
				Distance: 12345,
				Duration: 987,
				Geometry: osrmGeometry{
					Type:        "LineString",
					Coordinates: [][2]float64{{2.3522, 48.8566}, {13.405, 52.52}},
				},
			},
			{Distance: 1, Duration: 1},
		},
	}

	result, err := convertRoute(resp)
	assert.NoError(t, err)
	assert.Equal(t, []geo.Coordinate{
		{Latitude: 48.8566, Longitude: 2.3522},
		{Latitude: 52.52, Longitude: 13.405},
	}, result.Path)
	assert.Equal(t, 12.35, *result.DistanceKm)
	assert.Equal(t, 16.45, *result.DurationMinutes)
	assert.Equal(t, "osrm", result.Provider)
}

func TestConvertRoute_Codes(t *testing.T) {
	result, err := convertRoute(&osrmResponse{Code: "Ok"})
	assert.NoError(t, err)
	assert.True(t, result.IsEmpty())

	result, err = convertRoute(&osrmResponse{Code: "NoRoute"})
	assert.NoError(t, err)
	assert.True(t, result.IsEmpty())

	_, err = convertRoute(&osrmResponse{Code: "InvalidQuery", Message: "bad coords"})
	assert.ErrorContains(t, err, "InvalidQuery")
}
