package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/richxcame/maproute/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.UnixMilli(1_700_000_000_000)

func newTestLimiter(t *testing.T, cfg config.RateLimitConfig) (*Limiter, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	l := NewLimiter(db, cfg)
	l.WithNow(func() time.Time { return fixedNow })
	return l, mock
}

func enabledConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:       true,
		WindowSeconds: 60,
		Limit:         60,
		Burst:         0,
		RedisPrefix:   "rate-limit",
		EndpointOverrides: map[string]config.EndpointRateLimitConfig{
			"POST:/api/v1/sessions": {Limit: 5, Burst: 1, WindowSeconds: 10},
		},
	}
}

func TestRuleFor(t *testing.T) {
	l, _ := newTestLimiter(t, enabledConfig())

	assert.Equal(t, Rule{Limit: 60, Burst: 0, Window: time.Minute}, l.RuleFor("GET:/api/v1/route"))
	assert.Equal(t, Rule{Limit: 5, Burst: 1, Window: 10 * time.Second}, l.RuleFor("POST:/api/v1/sessions"))
}

func TestAllowSkipsRedisWhenDisabled(t *testing.T) {
	cfg := enabledConfig()
	cfg.Enabled = false
	l, mock := newTestLimiter(t, cfg)

	result, err := l.Allow(context.Background(), "GET:/x", "1.2.3.4", l.RuleFor("GET:/x"))
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllowTokenBucket(t *testing.T) {
	rule := Rule{Limit: 60, Window: time.Minute}
	key := "rate-limit:GET:/api/v1/route:1.2.3.4"

	t.Run("allowed", func(t *testing.T) {
		l, mock := newTestLimiter(t, enabledConfig())
		mock.ExpectEvalSha(l.script.Hash(), []string{key}, fixedNow.UnixMilli(), "0.0010000000", "60.0000000000", int64(120000)).
			SetVal([]interface{}{int64(1), "59", int64(0)})

		result, err := l.Allow(context.Background(), "GET:/api/v1/route", "1.2.3.4", rule)
		require.NoError(t, err)

		assert.True(t, result.Allowed)
		assert.Equal(t, 59, result.Remaining)
		assert.Equal(t, time.Second, result.ResetAfter)
		assert.Zero(t, result.RetryAfter)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("denied", func(t *testing.T) {
		l, mock := newTestLimiter(t, enabledConfig())
		mock.ExpectEvalSha(l.script.Hash(), []string{key}, fixedNow.UnixMilli(), "0.0010000000", "60.0000000000", int64(120000)).
			SetVal([]interface{}{int64(0), "0.5", int64(500)})

		result, err := l.Allow(context.Background(), "GET:/api/v1/route", "1.2.3.4", rule)
		require.NoError(t, err)

		assert.False(t, result.Allowed)
		assert.Equal(t, 0, result.Remaining)
		assert.Equal(t, 500*time.Millisecond, result.RetryAfter)
	})

	t.Run("redis failure", func(t *testing.T) {
		l, mock := newTestLimiter(t, enabledConfig())
		mock.ExpectEvalSha(l.script.Hash(), []string{key}, fixedNow.UnixMilli(), "0.0010000000", "60.0000000000", int64(120000)).
			SetErr(errors.New("connection refused"))

		_, err := l.Allow(context.Background(), "GET:/api/v1/route", "1.2.3.4", rule)
		assert.ErrorContains(t, err, "connection refused")
	})
}
