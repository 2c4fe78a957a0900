package search

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/richxcame/maproute/internal/resolver"
	"github.com/richxcame/maproute/internal/routing"
	"github.com/richxcame/maproute/pkg/common"
	"github.com/richxcame/maproute/pkg/geo"
	"github.com/richxcame/maproute/pkg/logger"
	"github.com/richxcame/maproute/pkg/tracing"
	"go.uber.org/zap"
)

const tracerName = "maproute/search"

// User-facing messages.
const (
	MsgInvalidEndpoints = routing.MsgInvalidEndpoints
	MsgRouteFailed      = routing.MsgFetchFailed
)

// RouteFetcher computes routes between two coordinates.
type RouteFetcher interface {
	FetchRoute(ctx context.Context, start, end *geo.Coordinate) (*routing.RouteResult, error)
}

// EmitFunc publishes a transition and returns the stamped state.
type EmitFunc func(State) State

// Workflow applies commands to states. It keeps no state of its own.
type Workflow struct {
	resolver    resolver.Resolver
	routes      RouteFetcher
	callTimeout time.Duration
}

// NewWorkflow creates a workflow. callTimeout bounds each resolve and route call.
func NewWorkflow(r resolver.Resolver, routes RouteFetcher, callTimeout time.Duration) *Workflow {
	return &Workflow{
		resolver:    r,
		routes:      routes,
		callTimeout: callTimeout,
	}
}

// Apply runs cmd against s, emitting every intermediate state. The returned
// error is an AppError when the command ended with a user-visible notice.
func (w *Workflow) Apply(ctx context.Context, s State, cmd Command, emit EmitFunc) error {
	ctx, span := tracing.StartSpan(ctx, tracerName, "search."+cmd.commandName())
	defer span.End()
	span.SetAttributes(tracing.SearchSessionIDKey.String(s.SessionID))

	var err error
	switch c := cmd.(type) {
	case Search:
		s, err = w.search(ctx, s, c, emit)
	case Swap:
		s = emit(s.Swapped())
		s, err = w.refresh(ctx, s, emit)
	case DeviceLocated:
		if verr := c.Coordinate.Validate(); verr != nil {
			return common.NewBadRequestError("invalid device coordinate", verr)
		}
		next := s
		next.InitialCoordinate = c.Coordinate.Ptr()
		next.InitialQuery = ""
		next.DeviceLocation = DeviceLocationAvailable
		next.Notice = nil
		s = emit(next)
		s, err = w.refresh(ctx, s, emit)
	case DeviceLocationFailed:
		logger.WarnContext(ctx, "device location unavailable, keeping current origin",
			zap.String("reason", c.Reason),
			zap.Stringp("origin", coordString(s.InitialCoordinate)),
		)
		next := s
		next.DeviceLocation = DeviceLocationUnavailable
		s = emit(next)
	default:
		return common.NewBadRequestError("unknown command", nil)
	}

	span.SetAttributes(tracing.SearchPhaseKey.String(string(s.Phase)))
	return err
}

func (w *Workflow) search(ctx context.Context, s State, c Search, emit EmitFunc) (State, error) {
	next := s.loading(PhaseResolving)
	next.InitialQuery = c.InitialQuery
	next.DestinationQuery = c.DestinationQuery
	s = emit(next)

	// origin first, then destination
	start := w.resolve(ctx, s.InitialQuery, s.InitialCoordinate)
	end := w.resolve(ctx, s.DestinationQuery, nil)

	from, okFrom := start.Coordinate()
	to, okTo := end.Coordinate()
	if !okFrom || !okTo {
		logger.InfoContext(ctx, "search endpoints unresolved",
			zap.Bool("origin_resolved", okFrom),
			zap.Bool("destination_resolved", okTo),
		)
		s = emit(s.withNotice(NoticeUserError, MsgInvalidEndpoints, PhaseIdle))
		return s, common.NewUserError(MsgInvalidEndpoints)
	}

	return w.route(ctx, s, from, to, emit)
}

// refresh refetches the route after the coordinate pair changed.
func (w *Workflow) refresh(ctx context.Context, s State, emit EmitFunc) (State, error) {
	if !s.NeedsRoute() {
		return s, nil
	}
	return w.route(ctx, s, *s.InitialCoordinate, *s.DestinationCoordinate, emit)
}

func (w *Workflow) route(ctx context.Context, s State, from, to geo.Coordinate, emit EmitFunc) (State, error) {
	s = emit(s.loading(PhaseRouting))

	callCtx, cancel := w.callContext(ctx)
	defer cancel()

	result, err := w.routes.FetchRoute(callCtx, &from, &to)
	if err != nil {
		appErr := asUpstream(err)
		kind := NoticeUpstreamError
		if appErr.ErrorCode == common.CodeUserError {
			kind = NoticeUserError
		}
		s = emit(s.withNotice(kind, appErr.Message, PhaseFailed))
		return s, appErr
	}

	return emit(s.withRoute(from, to, result)), nil
}

func (w *Workflow) resolve(ctx context.Context, query string, fallback *geo.Coordinate) resolver.Resolution {
	callCtx, cancel := w.callContext(ctx)
	defer cancel()
	return w.resolver.Resolve(callCtx, query, fallback)
}

func (w *Workflow) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if w.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, w.callTimeout)
}

// asUpstream keeps AppErrors and wraps anything else, timeouts included, as
// an upstream failure.
func asUpstream(err error) *common.AppError {
	if appErr, ok := common.AsAppError(err); ok {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return common.NewUpstreamError(http.StatusGatewayTimeout, MsgRouteFailed, err)
	}
	return common.NewUpstreamError(http.StatusBadGateway, MsgRouteFailed, err)
}

func coordString(c *geo.Coordinate) *string {
	if c == nil {
		return nil
	}
	s := c.String()
	return &s
}
