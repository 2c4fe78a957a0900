package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redisclient "github.com/richxcame/maproute/pkg/redis"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is a JSON value cache with per-entry TTL.
type Store interface {
	Get(ctx context.Context, key string, result interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Manager handles caching operations with JSON serialization on Redis
type Manager struct {
	redis redisclient.ClientInterface
}

var _ Store = (*Manager)(nil)

// NewManager creates a new cache manager
func NewManager(redis redisclient.ClientInterface) *Manager {
	return &Manager{redis: redis}
}

// Get retrieves a cached value and unmarshals it into result
func (m *Manager) Get(ctx context.Context, key string, result interface{}) error {
	data, err := m.redis.GetString(ctx, key)
	if err != nil {
		if redisclient.IsNil(err) {
			return ErrMiss
		}
		return err
	}

	return json.Unmarshal([]byte(data), result)
}

// Set marshals and caches a value with expiration
func (m *Manager) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return m.redis.SetWithExpiration(ctx, key, string(data), ttl)
}

// Delete removes keys from cache
func (m *Manager) Delete(ctx context.Context, keys ...string) error {
	return m.redis.Delete(ctx, keys...)
}

// CacheKeys defines cache key patterns
type CacheKeys struct{}

var Keys = CacheKeys{}

// Geocode keys a normalized free-text query. The query is hashed so arbitrary
// user input never ends up in a key verbatim.
func (k CacheKeys) Geocode(query string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(query), " "))
	sum := sha256.Sum256([]byte(normalized))
	return "geocode:" + hex.EncodeToString(sum[:16])
}

// Route keys an exact coordinate pair for a routing profile.
func (k CacheKeys) Route(profile string, fromLat, fromLon, toLat, toLon float64) string {
	return fmt.Sprintf("route:%s:%.6f,%.6f:%.6f,%.6f", profile, fromLat, fromLon, toLat, toLon)
}

// Session keys a search session snapshot.
func (k CacheKeys) Session(id string) string {
	return "search:session:" + id
}
