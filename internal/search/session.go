package search

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/richxcame/maproute/pkg/logger"
	"go.uber.org/zap"
)

// ErrSessionClosed is returned for commands sent to a stopped session.
var ErrSessionClosed = errors.New("search session closed")

// Publisher receives every state a session emits.
type Publisher interface {
	Publish(ctx context.Context, s State)
}

type request struct {
	ctx   context.Context
	cmd   Command
	reply chan result
}

type result struct {
	state State
	err   error
}

// Session owns one State. Commands run one at a time, in arrival order, on
// the session's own goroutine.
type Session struct {
	id        string
	workflow  *Workflow
	publisher Publisher
	now       func() time.Time

	mu    sync.RWMutex
	state State

	lastActive atomic.Int64
	requests   chan request
	stop       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
}

func newSession(initial State, workflow *Workflow, publisher Publisher, now func() time.Time) *Session {
	s := &Session{
		id:        initial.SessionID,
		workflow:  workflow,
		publisher: publisher,
		now:       now,
		state:     initial,
		requests:  make(chan request, 16),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	s.touch()
	go s.run()
	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns the latest emitted state.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch queues cmd and waits for it to finish. The command keeps running
// if ctx is cancelled while waiting.
func (s *Session) Dispatch(ctx context.Context, cmd Command) (State, error) {
	s.touch()
	req := request{ctx: ctx, cmd: cmd, reply: make(chan result, 1)}

	select {
	case s.requests <- req:
	case <-s.stop:
		return State{}, ErrSessionClosed
	case <-ctx.Done():
		return State{}, ctx.Err()
	}

	select {
	case res := <-req.reply:
		return res.state, res.err
	case <-s.done:
		select {
		case res := <-req.reply:
			return res.state, res.err
		default:
			return State{}, ErrSessionClosed
		}
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}

// Close stops the session goroutine and waits for the running command.
func (s *Session) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *Session) touch() {
	s.lastActive.Store(s.now().UnixNano())
}

func (s *Session) run() {
	defer close(s.done)

	for {
		select {
		case <-s.stop:
			return
		case req := <-s.requests:
			s.handle(req)
		}
	}
}

func (s *Session) handle(req request) {
	// triggers are never cancelled by the caller going away
	ctx := logger.ContextWithSessionID(context.WithoutCancel(req.ctx), s.id)

	err := s.workflow.Apply(ctx, s.Snapshot(), req.cmd, func(next State) State {
		return s.emit(ctx, next)
	})
	if err != nil {
		logger.DebugContext(ctx, "search command finished with notice",
			zap.String("command", req.cmd.commandName()),
			zap.Error(err),
		)
	}

	s.touch()
	req.reply <- result{state: s.Snapshot(), err: err}
}

func (s *Session) emit(ctx context.Context, next State) State {
	s.mu.Lock()
	next.Version = s.state.Version + 1
	next.UpdatedAt = s.now().UTC()
	s.state = next
	s.mu.Unlock()

	if s.publisher != nil {
		s.publisher.Publish(ctx, next)
	}
	return next
}
