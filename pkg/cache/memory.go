package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Memory is an in-process Store used when Redis is not configured. Values
// are stored as JSON so callers observe the same copy semantics as Redis.
type Memory struct {
	mu    sync.RWMutex
	items map[string]entry
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

var _ Store = (*Memory)(nil)

// NewMemory creates a Memory store sweeping expired entries every interval.
func NewMemory(sweepInterval time.Duration) *Memory {
	m := &Memory{
		items: make(map[string]entry),
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	if sweepInterval > 0 {
		go m.sweep(sweepInterval)
	}
	return m
}

func (m *Memory) Get(_ context.Context, key string, result interface{}) error {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()

	if !ok || (!e.expiresAt.IsZero() && m.now().After(e.expiresAt)) {
		return ErrMiss
	}

	return json.Unmarshal(e.data, result)
}

func (m *Memory) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	e := entry{data: data}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.items[key] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.items, key)
	}
	return nil
}

// Len returns the number of entries, including expired ones not yet swept.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Close stops the background sweeper.
func (m *Memory) Close() {
	m.once.Do(func() { close(m.stop) })
}

func (m *Memory) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.removeExpired()
		case <-m.stop:
			return
		}
	}
}

func (m *Memory) removeExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, e := range m.items {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			delete(m.items, key)
		}
	}
}
