package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	redisclient "github.com/richxcame/maproute/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func TestManagerRoundTrip(t *testing.T) {
	db, mock := redismock.NewClientMock()
	manager := NewManager(redisclient.Wrap(db))
	ctx := context.Background()

	key := Keys.Geocode("Paris")
	mock.ExpectSet(key, `{"lat":48.85,"lon":2.35}`, time.Hour).SetVal("OK")
	mock.ExpectGet(key).SetVal(`{"lat":48.85,"lon":2.35}`)
	mock.ExpectGet("missing").RedisNil()
	mock.ExpectGet("broken").SetErr(errors.New("timeout"))

	require.NoError(t, manager.Set(ctx, key, point{Lat: 48.85, Lon: 2.35}, time.Hour))

	var got point
	require.NoError(t, manager.Get(ctx, key, &got))
	assert.Equal(t, point{Lat: 48.85, Lon: 2.35}, got)

	assert.ErrorIs(t, manager.Get(ctx, "missing", &got), ErrMiss)

	err := manager.Get(ctx, "broken", &got)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGeocodeKeyNormalizesQuery(t *testing.T) {
	assert.Equal(t, Keys.Geocode("New  York"), Keys.Geocode(" new york "))
	assert.NotEqual(t, Keys.Geocode("Paris"), Keys.Geocode("Berlin"))
}

func TestRouteKeyIsExact(t *testing.T) {
	a := Keys.Route("driving", 48.8566, 2.3522, 52.52, 13.405)
	assert.Equal(t, "route:driving:48.856600,2.352200:52.520000,13.405000", a)
	assert.NotEqual(t, a, Keys.Route("driving", 52.52, 13.405, 48.8566, 2.3522))
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory(0)
	defer m.Close()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", point{Lat: 1, Lon: 2}, time.Minute))

	var got point
	require.NoError(t, m.Get(ctx, "k", &got))
	assert.Equal(t, point{Lat: 1, Lon: 2}, got)

	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, m.Get(ctx, "k", &got), ErrMiss)

	m.removeExpired()
	assert.Equal(t, 0, m.Len())
}

func TestMemoryDelete(t *testing.T) {
	m := NewMemory(0)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", 1, 0))
	require.NoError(t, m.Delete(ctx, "a"))

	var got int
	assert.ErrorIs(t, m.Get(ctx, "a", &got), ErrMiss)
}
