package search

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/richxcame/maproute/pkg/common"
	"github.com/richxcame/maproute/pkg/geo"
	"github.com/richxcame/maproute/pkg/logger"
	"github.com/richxcame/maproute/pkg/websocket"
	"go.uber.org/zap"
)

var activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "search_sessions_active",
	Help: "Search sessions currently held in memory",
})

// Broadcaster fans states out to live subscribers.
type Broadcaster interface {
	Publish(room string, msg *websocket.Message)
	CloseRoom(room string)
	ClientCount(room string) int
}

// ManagerConfig tunes session lifetime.
type ManagerConfig struct {
	DefaultOrigin geo.Coordinate
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

// Manager creates, finds and evicts sessions.
type Manager struct {
	workflow *Workflow
	store    Store
	hub      Broadcaster
	cfg      ManagerConfig
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager. hub may be nil.
func NewManager(workflow *Workflow, store Store, hub Broadcaster, cfg ManagerConfig) *Manager {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	return &Manager{
		workflow: workflow,
		store:    store,
		hub:      hub,
		cfg:      cfg,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new idle session.
func (m *Manager) Create(ctx context.Context) (State, error) {
	state := NewState(uuid.NewString(), m.cfg.DefaultOrigin, m.now().UTC())
	if err := m.store.Save(ctx, state); err != nil {
		return State{}, common.NewInternalError("failed to create session", err)
	}

	m.mu.Lock()
	m.sessions[state.SessionID] = newSession(state, m.workflow, m, m.now)
	activeSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	logger.InfoContext(ctx, "search session created", zap.String("session_id", state.SessionID))
	return state, nil
}

// Get returns the current state of a session.
func (m *Manager) Get(ctx context.Context, id string) (State, error) {
	session, err := m.session(ctx, id)
	if err != nil {
		return State{}, err
	}
	return session.Snapshot(), nil
}

// Dispatch applies cmd to the session and returns the resulting state. On
// a user or upstream notice both the state and the AppError are returned.
func (m *Manager) Dispatch(ctx context.Context, id string, cmd Command) (State, error) {
	session, err := m.session(ctx, id)
	if err != nil {
		return State{}, err
	}

	state, err := session.Dispatch(ctx, cmd)
	if errors.Is(err, ErrSessionClosed) {
		// evicted between lookup and dispatch; the snapshot is still stored
		m.forget(id, session)
		if session, err = m.session(ctx, id); err != nil {
			return State{}, err
		}
		state, err = session.Dispatch(ctx, cmd)
	}
	if errors.Is(err, ErrSessionClosed) {
		return State{}, common.NewNotFoundError("session not found", err)
	}
	return state, err
}

// forget drops s from memory unless it was already replaced.
func (m *Manager) forget(id string, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[id] == s {
		delete(m.sessions, id)
		activeSessions.Set(float64(len(m.sessions)))
	}
}

// Delete stops a session and drops its snapshot.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	activeSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	if ok {
		session.Close()
	} else if _, err := m.store.Load(ctx, id); err != nil {
		return m.lookupError(err)
	}

	if err := m.store.Delete(ctx, id); err != nil {
		return common.NewInternalError("failed to delete session", err)
	}
	if m.hub != nil {
		m.hub.CloseRoom(id)
	}

	logger.InfoContext(ctx, "search session deleted", zap.String("session_id", id))
	return nil
}

// Publish persists a state and forwards it to subscribers.
func (m *Manager) Publish(ctx context.Context, s State) {
	if err := m.store.Save(ctx, s); err != nil {
		logger.WarnContext(ctx, "failed to persist session state", zap.Error(err))
	}
	if m.hub != nil {
		m.hub.Publish(s.SessionID, &websocket.Message{
			Type: websocket.MessageTypeState,
			Room: s.SessionID,
			Data: s,
		})
	}
}

// Run evicts idle sessions until ctx is done, then stops every session.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Stop()
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

// Stop closes all in-memory sessions. Snapshots stay in the store.
func (m *Manager) Stop() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	activeSessions.Set(0)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// Len returns the number of sessions held in memory.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) evictIdle() {
	if m.cfg.IdleTTL <= 0 {
		return
	}
	cutoff := m.now().Add(-m.cfg.IdleTTL)

	var evicted []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.idleSince().After(cutoff) {
			continue
		}
		if m.hub != nil && m.hub.ClientCount(id) > 0 {
			continue
		}
		delete(m.sessions, id)
		evicted = append(evicted, s)
	}
	activeSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	for _, s := range evicted {
		s.Close()
		logger.Debug("evicted idle search session", zap.String("session_id", s.ID()))
	}
}

// session returns the live session for id, restoring it from the store when
// it is not in memory.
func (m *Manager) session(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s, nil
	}

	state, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, m.lookupError(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	s = newSession(state.Rehydrated(), m.workflow, m, m.now)
	m.sessions[id] = s
	activeSessions.Set(float64(len(m.sessions)))

	logger.InfoContext(ctx, "search session restored", zap.String("session_id", id))
	return s, nil
}

func (m *Manager) lookupError(err error) error {
	if errors.Is(err, ErrSessionNotFound) {
		return common.NewNotFoundError("session not found", err)
	}
	return common.NewInternalError("failed to load session", err)
}
