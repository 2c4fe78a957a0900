package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/richxcame/maproute/pkg/cache"
)

// ErrSessionNotFound is returned when no snapshot exists for an id.
var ErrSessionNotFound = errors.New("search session not found")

// Store persists session snapshots.
type Store interface {
	Save(ctx context.Context, s State) error
	Load(ctx context.Context, id string) (State, error)
	Delete(ctx context.Context, id string) error
}

// CacheStore keeps snapshots as JSON under search:session:<id>. Backed by
// Redis in deployments and by the in-process cache otherwise.
type CacheStore struct {
	cache cache.Store
	ttl   time.Duration
}

var _ Store = (*CacheStore)(nil)

// NewStore creates a snapshot store; every save refreshes the ttl.
func NewStore(c cache.Store, ttl time.Duration) *CacheStore {
	return &CacheStore{cache: c, ttl: ttl}
}

func (s *CacheStore) Save(ctx context.Context, state State) error {
	if err := s.cache.Set(ctx, cache.Keys.Session(state.SessionID), state, s.ttl); err != nil {
		return fmt.Errorf("save session %s: %w", state.SessionID, err)
	}
	return nil
}

func (s *CacheStore) Load(ctx context.Context, id string) (State, error) {
	var state State
	if err := s.cache.Get(ctx, cache.Keys.Session(id), &state); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return State{}, ErrSessionNotFound
		}
		return State{}, fmt.Errorf("load session %s: %w", id, err)
	}
	return state, nil
}

func (s *CacheStore) Delete(ctx context.Context, id string) error {
	if err := s.cache.Delete(ctx, cache.Keys.Session(id)); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}
