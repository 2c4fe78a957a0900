package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/richxcame/maproute/pkg/config"
)

// Rule defines a rate limiting policy for one endpoint.
type Rule struct {
	Limit  int
	Burst  int
	Window time.Duration
}

// Result captures the outcome of a rate limiting decision.
type Result struct {
	Allowed     bool
	Remaining   int
	RetryAfter  time.Duration
	Limit       int
	Window      time.Duration
	ResetAfter  time.Duration
	IdentityKey string
	EndpointKey string
}

// Limiter implements a Redis-backed token bucket rate limiter.
type Limiter struct {
	client redis.Cmdable
	cfg    config.RateLimitConfig
	script *redis.Script
	now    func() time.Time
}

// The bucket refills continuously at limit/window tokens per millisecond and
// holds at most limit+burst tokens.
const tokenBucketScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local refillRate = tonumber(ARGV[2])
local capacity = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local data = redis.call("HMGET", key, "tokens", "timestamp")
local tokens = tonumber(data[1])
local timestamp = tonumber(data[2])

if tokens == nil then
    tokens = capacity
    timestamp = now
else
    if timestamp == nil then
        timestamp = now
    end
    local delta = now - timestamp
    if delta > 0 then
        tokens = math.min(capacity, tokens + (delta * refillRate))
        timestamp = now
    end
end

local allowed = 0
if tokens >= 1 then
    allowed = 1
    tokens = tokens - 1
end

redis.call("HMSET", key, "tokens", tokens, "timestamp", now)
redis.call("PEXPIRE", key, ttl)

local retryAfter = 0
if allowed == 0 then
    retryAfter = math.ceil((1 - tokens) / refillRate)
end

return {allowed, tostring(tokens), retryAfter}
`

// NewLimiter creates a new Limiter instance.
func NewLimiter(client redis.Cmdable, cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		client: client,
		cfg:    cfg,
		script: redis.NewScript(tokenBucketScript),
		now:    time.Now,
	}
}

// RuleFor determines the effective rule for an endpoint key.
func (l *Limiter) RuleFor(endpoint string) Rule {
	rule := Rule{
		Limit:  l.cfg.Limit,
		Burst:  l.cfg.Burst,
		Window: l.cfg.Window(),
	}

	if override, ok := l.cfg.EndpointOverrides[endpoint]; ok {
		if override.WindowSeconds > 0 {
			rule.Window = time.Duration(override.WindowSeconds) * time.Second
		}
		if override.Limit > 0 {
			rule.Limit = override.Limit
		}
		if override.Burst >= 0 {
			rule.Burst = override.Burst
		}
	}

	if rule.Limit < 0 {
		rule.Limit = 0
	}
	if rule.Burst < 0 {
		rule.Burst = 0
	}
	return rule
}

// Allow takes one token from the bucket for identityKey on endpointKey.
func (l *Limiter) Allow(ctx context.Context, endpointKey, identityKey string, rule Rule) (Result, error) {
	if !l.cfg.Enabled || rule.Limit <= 0 {
		return Result{
			Allowed:     true,
			Remaining:   rule.Limit,
			Limit:       rule.Limit,
			Window:      rule.Window,
			IdentityKey: identityKey,
			EndpointKey: endpointKey,
		}, nil
	}

	if rule.Window <= 0 {
		rule.Window = l.cfg.Window()
	}

	key := fmt.Sprintf("%s:%s:%s", l.cfg.RedisPrefix, endpointKey, identityKey)

	now := l.now().UnixMilli()
	windowMillis := rule.Window.Milliseconds()
	refillRate := float64(rule.Limit) / float64(windowMillis)
	capacity := math.Max(1, float64(rule.Limit+rule.Burst))
	ttl := windowMillis * 2

	raw, err := l.script.Run(ctx, l.client, []string{key}, now, formatFloat(refillRate), formatFloat(capacity), ttl).Result()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit script: %w", err)
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) != 3 {
		return Result{}, errors.New("unexpected script response")
	}

	allowed := toInt(values[0])
	remainingTokens := toFloat(values[1])
	retryAfterMillis := toInt(values[2])

	result := Result{
		Allowed:     allowed == 1,
		Remaining:   int(math.Max(0, math.Floor(remainingTokens))),
		RetryAfter:  time.Duration(retryAfterMillis) * time.Millisecond,
		Limit:       rule.Limit,
		Window:      rule.Window,
		ResetAfter:  time.Duration(retryAfterMillis) * time.Millisecond,
		IdentityKey: identityKey,
		EndpointKey: endpointKey,
	}

	if result.Allowed {
		missing := math.Max(0, capacity-remainingTokens)
		result.ResetAfter = time.Duration(math.Ceil(missing/refillRate)) * time.Millisecond
		result.RetryAfter = 0
	}

	return result, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 10, 64)
}

func toInt(value interface{}) int {
	switch v := value.(type) {
	case int64:
		return int(v)
	case int:
		return v
	case string:
		i, _ := strconv.Atoi(v)
		return i
	case float64:
		return int(v)
	default:
		return 0
	}
}

func toFloat(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

// WithNow overrides the time source (useful for tests).
func (l *Limiter) WithNow(now func() time.Time) {
	l.now = now
}
