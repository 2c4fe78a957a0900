package routing

import (
	"math"
	"time"

	"github.com/richxcame/maproute/pkg/geo"
)

// RouteResult is the outcome of one route fetch. An empty result (no path,
// no distance, no duration) means the backend found no route.
type RouteResult struct {
	Path            []geo.Coordinate `json:"path"`
	DistanceKm      *float64         `json:"distance_km,omitempty"`
	DurationMinutes *float64         `json:"duration_minutes,omitempty"`
	Provider        string           `json:"provider,omitempty"`
	FetchedAt       time.Time        `json:"fetched_at"`
	CacheHit        bool             `json:"cache_hit"`
}

// IsEmpty reports whether the result carries no route.
func (r *RouteResult) IsEmpty() bool {
	return r == nil || (len(r.Path) == 0 && r.DistanceKm == nil && r.DurationMinutes == nil)
}

// EmptyRoute returns a result for "no route between the points".
func EmptyRoute(provider string) *RouteResult {
	return &RouteResult{
		Path:      []geo.Coordinate{},
		Provider:  provider,
		FetchedAt: time.Now().UTC(),
	}
}

// round2 divides v by divisor and rounds half away from zero to two decimals.
// Scaling before dividing keeps 12345/1000 at 12.35 rather than 12.34.
func round2(v, divisor float64) float64 {
	return math.Round(v*100/divisor) / 100
}

// MetersToKm converts a distance to kilometres with two decimals.
func MetersToKm(meters float64) float64 {
	return round2(meters, 1000)
}

// SecondsToMinutes converts a duration to minutes with two decimals.
func SecondsToMinutes(seconds float64) float64 {
	return round2(seconds, 60)
}

// OSRM wire types.

type osrmResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message,omitempty"`
	Routes  []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Distance float64      `json:"distance"`
	Duration float64      `json:"duration"`
	Geometry osrmGeometry `json:"geometry"`
}

type osrmGeometry struct {
	Type        string       `json:"type"`
	Coordinates [][2]float64 `json:"coordinates"`
}

// OSRM codes meaning "no route" rather than a failure.
const (
	osrmCodeOK        = "Ok"
	osrmCodeNoRoute   = "NoRoute"
	osrmCodeNoSegment = "NoSegment"
)
