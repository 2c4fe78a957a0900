package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/richxcame/maproute/pkg/logger"
	"go.uber.org/zap"
)

// RetryConfig defines the configuration for retry behavior
type RetryConfig struct {
	// MaxAttempts includes the initial attempt.
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	// EnableJitter applies full jitter to each backoff.
	EnableJitter bool
	// RetryableChecker decides whether an error is worth another attempt.
	RetryableChecker func(error) bool
}

// DefaultRetryConfig keeps retries short enough to fit in an interactive search.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    200 * time.Millisecond,
		MaxBackoff:        2 * time.Second,
		BackoffMultiplier: 2.0,
		EnableJitter:      true,
	}
}

// Retry executes the given operation with exponential backoff retry logic
func Retry(ctx context.Context, config RetryConfig, operation Operation) (interface{}, error) {
	return RetryWithName(ctx, config, operation, "unknown")
}

// RetryWithName executes the operation with retry logic and records metrics with the given operation name
func RetryWithName(ctx context.Context, config RetryConfig, operation Operation, operationName string) (interface{}, error) {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}

	startTime := time.Now()
	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			recordRetryOperation(operationName, time.Since(startTime).Seconds(), false)
			return nil, err
		}

		result, err := operation(ctx)
		if err == nil {
			recordRetryAttempt(operationName, true)
			recordRetryOperation(operationName, time.Since(startTime).Seconds(), true)
			if attempt > 1 {
				logger.DebugContext(ctx, "operation succeeded after retry",
					zap.Int("attempt", attempt),
					zap.String("operation", operationName),
				)
			}
			return result, nil
		}

		recordRetryAttempt(operationName, false)
		lastErr = err

		if !shouldRetry(err, config) || attempt == config.MaxAttempts {
			break
		}

		backoff := calculateBackoff(attempt, config)
		logger.DebugContext(ctx, "retrying operation after backoff",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.String("operation", operationName),
			zap.Error(err),
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			recordRetryOperation(operationName, time.Since(startTime).Seconds(), false)
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	recordRetryOperation(operationName, time.Since(startTime).Seconds(), false)
	return nil, lastErr
}

func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	multiplier := config.BackoffMultiplier
	if multiplier <= 0 {
		multiplier = 2
	}

	backoff := float64(config.InitialBackoff) * math.Pow(multiplier, float64(attempt-1))
	if config.MaxBackoff > 0 && backoff > float64(config.MaxBackoff) {
		backoff = float64(config.MaxBackoff)
	}

	duration := time.Duration(backoff)
	if config.EnableJitter && duration > 0 {
		duration = time.Duration(rand.Int63n(int64(duration)))
	}

	return duration
}

func shouldRetry(err error, config RetryConfig) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if errors.Is(err, ErrCircuitOpen) {
		return false
	}

	if config.RetryableChecker != nil {
		return config.RetryableChecker(err)
	}

	return true
}

// IsRetryableHTTPStatus reports whether a response status is transient.
func IsRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
