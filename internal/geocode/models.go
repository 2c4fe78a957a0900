package geocode

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/richxcame/maproute/pkg/geo"
)

// Place is one candidate returned by a Nominatim-compatible search.
// Coordinates arrive as decimal strings.
type Place struct {
	PlaceID     int64   `json:"place_id"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Type        string  `json:"type"`
	Class       string  `json:"class"`
	Importance  float64 `json:"importance"`
}

// Coordinate parses the place's lat/lon into a validated coordinate.
func (p Place) Coordinate() (geo.Coordinate, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(p.Lat), 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("invalid latitude %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(p.Lon), 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("invalid longitude %q: %w", p.Lon, err)
	}
	return geo.New(lat, lon)
}

// Match is the proxy's answer for a query. On the wire both fields are
// decimal strings, e.g. {"lat":"48.8566","lon":"2.3522"}.
type Match struct {
	Lat float64 `json:"lat,string"`
	Lon float64 `json:"lon,string"`
}

// MarshalJSON always writes plain decimals; 1e-07 would not parse as a
// coordinate on every client.
func (m Match) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}{
		Lat: strconv.FormatFloat(m.Lat, 'f', -1, 64),
		Lon: strconv.FormatFloat(m.Lon, 'f', -1, 64),
	})
}

// Coordinate converts the match into a geo.Coordinate.
func (m Match) Coordinate() geo.Coordinate {
	return geo.Coordinate{Latitude: m.Lat, Longitude: m.Lon}
}

// ErrorBody is the error payload of the geocode endpoint.
type ErrorBody struct {
	Error string `json:"error"`
}

// Client-visible messages.
const (
	MsgLocationRequired = "Location is required"
	MsgNoCoordinates    = "No coordinates found"
	MsgInternal         = "Internal server error"
)
