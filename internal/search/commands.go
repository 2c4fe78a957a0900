package search

import "github.com/richxcame/maproute/pkg/geo"

// Command is one trigger applied to a session.
type Command interface {
	commandName() string
}

// Search resolves both queries and routes between them.
type Search struct {
	InitialQuery     string
	DestinationQuery string
}

// Swap exchanges origin and destination.
type Swap struct{}

// DeviceLocated reports the device position.
type DeviceLocated struct {
	Coordinate geo.Coordinate
}

// DeviceLocationFailed reports that the device position is unavailable.
type DeviceLocationFailed struct {
	Reason string
}

func (Search) commandName() string               { return "search" }
func (Swap) commandName() string                 { return "swap" }
func (DeviceLocated) commandName() string        { return "device_located" }
func (DeviceLocationFailed) commandName() string { return "device_location_failed" }
