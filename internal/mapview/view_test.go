package mapview

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/richxcame/maproute/internal/routing"
	"github.com/richxcame/maproute/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	paris  = geo.Coordinate{Latitude: 48.8566, Longitude: 2.3522}
	berlin = geo.Coordinate{Latitude: 52.52, Longitude: 13.405}
)

func sampleRoute() *routing.RouteResult {
	distance, duration := 12.35, 16.45
	return &routing.RouteResult{
		Path:            []geo.Coordinate{paris, {Latitude: 50.5, Longitude: 7}, berlin},
		DistanceKm:      &distance,
		DurationMinutes: &duration,
	}
}

func TestRender_Defaults(t *testing.T) {
	origin := geo.Coordinate{}
	v := Render(Input{InitialCoordinate: &origin})

	assert.Equal(t, origin, v.Center)
	assert.Equal(t, 5, v.Zoom)
	require.Len(t, v.BaseLayers, 2)
	assert.True(t, v.BaseLayers[0].Checked)
	assert.Equal(t, "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png", v.BaseLayers[0].URL)
	assert.False(t, v.BaseLayers[1].Checked)
	assert.Equal(t, []string{"mt0", "mt1", "mt2", "mt3"}, v.BaseLayers[1].Subdomains)

	require.Len(t, v.Markers, 1)
	assert.Equal(t, RoleOrigin, v.Markers[0].Role)
	assert.Equal(t, "📍 ", v.Markers[0].Popup)
	assert.Nil(t, v.Polyline)
	assert.Nil(t, v.FitBounds)
	assert.Empty(t, v.Distance)
}

func TestRender_FullRoute(t *testing.T) {
	v := Render(Input{
		InitialCoordinate:     &paris,
		DestinationCoordinate: &berlin,
		Route:                 sampleRoute(),
		InitialLabel:          "Paris",
		DestinationLabel:      "Berlin",
	})

	require.Len(t, v.Markers, 2)
	assert.Equal(t, "📍 Paris", v.Markers[0].Popup)
	assert.Equal(t, "📍 Berlin", v.Markers[1].Popup)
	assert.Equal(t, destinationIcon, v.Markers[1].Icon)
	assert.NotEmpty(t, v.Markers[0].H3Cell)
	assert.NotEqual(t, v.Markers[0].H3Cell, v.Markers[1].H3Cell)

	require.NotNil(t, v.Polyline)
	assert.Len(t, v.Polyline.Positions, 3)
	assert.Equal(t, "blue", v.Polyline.Color)
	assert.Equal(t, 6, v.Polyline.Weight)
	assert.Equal(t, "10, 10", v.Polyline.DashArray)
	assert.Equal(t, 0.8, v.Polyline.Opacity)

	require.NotNil(t, v.FitBounds)
	assert.Equal(t, paris, v.FitBounds.SouthWest)
	assert.Equal(t, berlin, v.FitBounds.NorthEast)
	assert.Equal(t, [2]int{50, 50}, v.FitBounds.Padding)

	assert.Equal(t, "12.35 km", v.Distance)
	assert.Equal(t, "16.45 minutes", v.Duration)
	assert.Equal(t, paris, v.Center)
}

func TestRender_BoundsIndependentOfOrder(t *testing.T) {
	a := Render(Input{InitialCoordinate: &paris, DestinationCoordinate: &berlin})
	b := Render(Input{InitialCoordinate: &berlin, DestinationCoordinate: &paris})
	assert.Equal(t, a.FitBounds, b.FitBounds)
}

func TestRender_EmptyRouteDrawsNothing(t *testing.T) {
	v := Render(Input{
		InitialCoordinate:     &paris,
		DestinationCoordinate: &berlin,
		Route:                 routing.EmptyRoute("osrm"),
	})
	assert.Nil(t, v.Polyline)
	assert.Empty(t, v.Distance)
	assert.Empty(t, v.Duration)
	assert.NotNil(t, v.FitBounds)
}

func TestRender_DoesNotAliasRoute(t *testing.T) {
	route := sampleRoute()
	v := Render(Input{InitialCoordinate: &paris, DestinationCoordinate: &berlin, Route: route})
	v.Polyline.Positions[0] = geo.Coordinate{}
	assert.Equal(t, paris, route.Path[0])
}

func TestGeoJSON(t *testing.T) {
	v := Render(Input{
		InitialCoordinate:     &paris,
		DestinationCoordinate: &berlin,
		Route:                 sampleRoute(),
		InitialLabel:          "Paris",
		DestinationLabel:      "Berlin",
	})

	fc := v.GeoJSON()
	require.Len(t, fc.Features, 3)

	origin, ok := fc.Features[0].Geometry.(orb.Point)
	require.True(t, ok)
	assert.Equal(t, orb.Point{2.3522, 48.8566}, origin)
	assert.Equal(t, "origin", fc.Features[0].Properties["role"])

	line, ok := fc.Features[2].Geometry.(orb.LineString)
	require.True(t, ok)
	assert.Len(t, line, 3)
	assert.Equal(t, orb.Point{13.405, 52.52}, line[2])
	assert.Equal(t, "12.35 km", fc.Features[2].Properties["distance"])

	data, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"FeatureCollection"`)
	assert.Contains(t, string(data), `"bbox"`)
}
