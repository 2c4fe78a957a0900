package resolver

import (
	"errors"

	"github.com/richxcame/maproute/pkg/geo"
)

// Reasons a query can stay unresolved.
var (
	ErrNoFallback     = errors.New("blank query and no fallback coordinate")
	ErrNoMatch        = errors.New("no coordinates found")
	ErrInvalidQuery   = errors.New("geocode proxy rejected the query")
	ErrProxyFailure   = errors.New("geocode proxy failure")
	ErrMalformedReply = errors.New("malformed geocode proxy reply")
)

// Resolution is either a coordinate or the reason there is none.
type Resolution struct {
	coord  *geo.Coordinate
	reason error
}

// Resolved wraps a coordinate.
func Resolved(c geo.Coordinate) Resolution {
	return Resolution{coord: &c}
}

// Unresolved records why no coordinate is available.
func Unresolved(reason error) Resolution {
	if reason == nil {
		reason = ErrNoMatch
	}
	return Resolution{reason: reason}
}

// Coordinate returns the coordinate and whether there is one.
func (r Resolution) Coordinate() (geo.Coordinate, bool) {
	if r.coord == nil {
		return geo.Coordinate{}, false
	}
	return *r.coord, true
}

// Ptr returns the coordinate as an optional value.
func (r Resolution) Ptr() *geo.Coordinate {
	if r.coord == nil {
		return nil
	}
	return r.coord.Ptr()
}

// IsResolved reports whether a coordinate is available.
func (r Resolution) IsResolved() bool {
	return r.coord != nil
}

// Reason is nil for resolved results.
func (r Resolution) Reason() error {
	return r.reason
}

// View is the JSON form of a Resolution.
type View struct {
	Resolved   bool            `json:"resolved"`
	Coordinate *geo.Coordinate `json:"coordinate,omitempty"`
	Reason     string          `json:"reason,omitempty"`
}

// View converts the resolution for API responses.
func (r Resolution) View() View {
	v := View{Resolved: r.IsResolved(), Coordinate: r.Ptr()}
	if r.reason != nil {
		v.Reason = r.reason.Error()
	}
	return v
}
