// Package mapview projects a search state into a renderable map description.
package mapview

import (
	"fmt"
	"strconv"

	"github.com/richxcame/maproute/internal/routing"
	"github.com/richxcame/maproute/pkg/geo"
	"github.com/uber/h3-go/v4"
)

const (
	// DefaultZoom is the initial zoom level of the map.
	DefaultZoom = 5

	// MarkerH3Resolution is the H3 resolution attached to markers (~175m edge).
	MarkerH3Resolution = 9

	popupPrefix = "📍 "
)

// Marker roles.
const (
	RoleOrigin      = "origin"
	RoleDestination = "destination"
)

// TileLayer is a switchable base layer.
type TileLayer struct {
	Name       string   `json:"name"`
	URL        string   `json:"url"`
	Subdomains []string `json:"subdomains,omitempty"`
	Checked    bool     `json:"checked"`
}

// Icon describes a marker image.
type Icon struct {
	URL       string `json:"url"`
	ShadowURL string `json:"shadow_url,omitempty"`
	Size      [2]int `json:"size"`
	Anchor    [2]int `json:"anchor"`
}

// Marker pins one known coordinate.
type Marker struct {
	Role     string         `json:"role"`
	Position geo.Coordinate `json:"position"`
	Popup    string         `json:"popup"`
	Icon     Icon           `json:"icon"`
	H3Cell   string         `json:"h3_cell,omitempty"`
}

// Polyline draws the route path.
type Polyline struct {
	Positions []geo.Coordinate `json:"positions"`
	Color     string           `json:"color"`
	Weight    int              `json:"weight"`
	DashArray string           `json:"dash_array"`
	Opacity   float64          `json:"opacity"`
}

// Bounds is the viewport to fit, with padding in pixels.
type Bounds struct {
	SouthWest geo.Coordinate `json:"south_west"`
	NorthEast geo.Coordinate `json:"north_east"`
	Padding   [2]int         `json:"padding"`
}

// Input is everything the map depends on.
type Input struct {
	InitialCoordinate     *geo.Coordinate
	DestinationCoordinate *geo.Coordinate
	Route                 *routing.RouteResult
	InitialLabel          string
	DestinationLabel      string
}

// View is the rendered map description.
type View struct {
	BaseLayers []TileLayer    `json:"base_layers"`
	Center     geo.Coordinate `json:"center"`
	Zoom       int            `json:"zoom"`
	Markers    []Marker       `json:"markers"`
	Polyline   *Polyline      `json:"polyline,omitempty"`
	FitBounds  *Bounds        `json:"fit_bounds,omitempty"`
	Distance   string         `json:"distance,omitempty"`
	Duration   string         `json:"duration,omitempty"`
}

var (
	baseLayers = []TileLayer{
		{Name: "Default", URL: "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png", Checked: true},
		{Name: "Satellite", URL: "https://{s}.google.com/vt/lyrs=s&x={x}&y={y}&z={z}", Subdomains: []string{"mt0", "mt1", "mt2", "mt3"}},
	}

	originIcon = Icon{
		URL:    "https://cdnjs.cloudflare.com/ajax/libs/leaflet/1.7.1/images/marker-icon.png",
		Size:   [2]int{30, 45},
		Anchor: [2]int{15, 45},
	}

	destinationIcon = Icon{
		URL:       "https://raw.githubusercontent.com/pointhi/leaflet-color-markers/master/img/marker-icon-red.png",
		ShadowURL: "https://cdnjs.cloudflare.com/ajax/libs/leaflet/0.7.7/images/marker-shadow.png",
		Size:      [2]int{30, 45},
		Anchor:    [2]int{15, 45},
	}

	fitPadding = [2]int{50, 50}
)

// Render builds the view for in. It has no side effects.
func Render(in Input) View {
	v := View{
		BaseLayers: append([]TileLayer(nil), baseLayers...),
		Zoom:       DefaultZoom,
		Markers:    []Marker{},
	}

	if in.InitialCoordinate != nil {
		v.Center = *in.InitialCoordinate
		v.Markers = append(v.Markers, newMarker(RoleOrigin, *in.InitialCoordinate, in.InitialLabel, originIcon))
	}
	if in.DestinationCoordinate != nil {
		v.Markers = append(v.Markers, newMarker(RoleDestination, *in.DestinationCoordinate, in.DestinationLabel, destinationIcon))
	}

	if in.InitialCoordinate != nil && in.DestinationCoordinate != nil {
		v.FitBounds = fitBounds(*in.InitialCoordinate, *in.DestinationCoordinate)
	}

	if in.Route != nil && len(in.Route.Path) > 0 {
		v.Polyline = &Polyline{
			Positions: append([]geo.Coordinate(nil), in.Route.Path...),
			Color:     "blue",
			Weight:    6,
			DashArray: "10, 10",
			Opacity:   0.8,
		}
	}

	if in.Route != nil && in.Route.DistanceKm != nil && in.Route.DurationMinutes != nil {
		v.Distance = formatAmount(*in.Route.DistanceKm) + " km"
		v.Duration = formatAmount(*in.Route.DurationMinutes) + " minutes"
	}

	return v
}

func newMarker(role string, c geo.Coordinate, label string, icon Icon) Marker {
	return Marker{
		Role:     role,
		Position: c,
		Popup:    popupPrefix + label,
		Icon:     icon,
		H3Cell:   cellFor(c),
	}
}

func cellFor(c geo.Coordinate) string {
	cell, err := h3.LatLngToCell(h3.NewLatLng(c.Latitude, c.Longitude), MarkerH3Resolution)
	if err != nil {
		return ""
	}
	return cell.String()
}

// formatAmount prints two decimals, e.g. 12.35 or 600.00.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// String renders the route summary line.
func (v View) String() string {
	if v.Distance == "" {
		return fmt.Sprintf("map centered on %s", v.Center)
	}
	return fmt.Sprintf("Distance: %s, Estimated Time: %s", v.Distance, v.Duration)
}
