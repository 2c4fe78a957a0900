// Package geo holds the coordinate value type shared by every component.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrLatitudeOutOfRange  = errors.New("latitude must be within [-90, 90]")
	ErrLongitudeOutOfRange = errors.New("longitude must be within [-180, 180]")
	ErrMalformedPair       = errors.New(`coordinate must be formatted as "lat,lon"`)
)

// Coordinate is a WGS84 point in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// New validates and builds a Coordinate.
func New(lat, lon float64) (Coordinate, error) {
	c := Coordinate{Latitude: lat, Longitude: lon}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// Validate reports whether both axes are within range. NaN is never in range.
func (c Coordinate) Validate() error {
	if !inRange(c.Latitude, 90) {
		return fmt.Errorf("%w: got %v", ErrLatitudeOutOfRange, c.Latitude)
	}
	if !inRange(c.Longitude, 180) {
		return fmt.Errorf("%w: got %v", ErrLongitudeOutOfRange, c.Longitude)
	}
	return nil
}

func inRange(v, limit float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= -limit && v <= limit
}

// String renders the coordinate as "lat,lon".
func (c Coordinate) String() string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

// Ptr returns a pointer to a copy of c.
func (c Coordinate) Ptr() *Coordinate {
	return &c
}

// Parse reads a "lat,lon" pair.
func Parse(s string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return Coordinate{}, ErrMalformedPair
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: %v", ErrMalformedPair, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: %v", ErrMalformedPair, err)
	}

	return New(lat, lon)
}

// Equal compares two optional coordinates; two nils are equal.
func Equal(a, b *Coordinate) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
