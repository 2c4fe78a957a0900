// Package search runs route-planning sessions: each session owns a State
// that moves through resolve and route steps in response to commands.
package search

import (
	"time"

	"github.com/richxcame/maproute/internal/routing"
	"github.com/richxcame/maproute/pkg/geo"
)

// Phase is the workflow position of a session.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseResolving Phase = "resolving"
	PhaseRouting   Phase = "routing"
	PhaseDone      Phase = "done"
	PhaseFailed    Phase = "failed"
)

// NoticeKind classifies a message shown to the user.
type NoticeKind string

const (
	NoticeUserError     NoticeKind = "user_error"
	NoticeUpstreamError NoticeKind = "upstream_error"
	NoticeInputError    NoticeKind = "input_error"
)

// Notice is the last user-visible problem, cleared by the next command.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// DeviceLocation reports what is known about the device position.
type DeviceLocation string

const (
	DeviceLocationUnknown     DeviceLocation = "unknown"
	DeviceLocationAvailable   DeviceLocation = "available"
	DeviceLocationUnavailable DeviceLocation = "unavailable"
)

// State is an immutable snapshot of one session. Every transition produces a
// new value with a higher Version.
//
// DestinationCoordinate stays nil until a search resolved both ends, and
// Route is only set while both coordinates are set. RouteFrom and RouteTo
// record the pair the route was computed for.
type State struct {
	SessionID             string               `json:"session_id"`
	Version               uint64               `json:"version"`
	Phase                 Phase                `json:"phase"`
	InitialQuery          string               `json:"initial_query"`
	DestinationQuery      string               `json:"destination_query"`
	InitialCoordinate     *geo.Coordinate      `json:"initial_coordinate"`
	DestinationCoordinate *geo.Coordinate      `json:"destination_coordinate"`
	Route                 *routing.RouteResult `json:"route,omitempty"`
	RouteFrom             *geo.Coordinate      `json:"route_from,omitempty"`
	RouteTo               *geo.Coordinate      `json:"route_to,omitempty"`
	Loading               bool                 `json:"loading"`
	DeviceLocation        DeviceLocation       `json:"device_location"`
	Notice                *Notice              `json:"notice,omitempty"`
	CreatedAt             time.Time            `json:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at"`
}

// NewState returns the idle state of a fresh session positioned at the
// default origin.
func NewState(id string, defaultOrigin geo.Coordinate, now time.Time) State {
	return State{
		SessionID:         id,
		Phase:             PhaseIdle,
		InitialCoordinate: defaultOrigin.Ptr(),
		DeviceLocation:    DeviceLocationUnknown,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Swapped exchanges queries and coordinates. A route that no longer has both
// endpoints is dropped in the same step.
func (s State) Swapped() State {
	s.InitialQuery, s.DestinationQuery = s.DestinationQuery, s.InitialQuery
	s.InitialCoordinate, s.DestinationCoordinate = s.DestinationCoordinate, s.InitialCoordinate
	if s.InitialCoordinate == nil || s.DestinationCoordinate == nil {
		s = s.withoutRoute()
	}
	s.Notice = nil
	return s
}

// NeedsRoute reports whether both coordinates are known and the current
// route, if any, was computed for a different pair.
func (s State) NeedsRoute() bool {
	if s.InitialCoordinate == nil || s.DestinationCoordinate == nil {
		return false
	}
	return s.Route == nil ||
		!geo.Equal(s.RouteFrom, s.InitialCoordinate) ||
		!geo.Equal(s.RouteTo, s.DestinationCoordinate)
}

// HasRoute reports whether a non-empty route is attached.
func (s State) HasRoute() bool {
	return !s.Route.IsEmpty()
}

// Rehydrated clears in-flight markers from a snapshot restored after a restart.
func (s State) Rehydrated() State {
	if s.Phase == PhaseResolving || s.Phase == PhaseRouting {
		s.Phase = PhaseIdle
	}
	s.Loading = false
	return s
}

func (s State) withoutRoute() State {
	s.Route = nil
	s.RouteFrom = nil
	s.RouteTo = nil
	return s
}

func (s State) withRoute(from, to geo.Coordinate, route *routing.RouteResult) State {
	s.InitialCoordinate = from.Ptr()
	s.DestinationCoordinate = to.Ptr()
	s.Route = route
	s.RouteFrom = from.Ptr()
	s.RouteTo = to.Ptr()
	s.Phase = PhaseDone
	s.Loading = false
	s.Notice = nil
	return s
}

func (s State) withNotice(kind NoticeKind, message string, phase Phase) State {
	s.Notice = &Notice{Kind: kind, Message: message}
	s.Phase = phase
	s.Loading = false
	return s
}

func (s State) loading(phase Phase) State {
	s.Phase = phase
	s.Loading = true
	s.Notice = nil
	return s
}
