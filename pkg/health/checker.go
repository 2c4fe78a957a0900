package health

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Checker is a readiness check that returns an error if unhealthy.
type Checker func() error

// Pinger is anything that answers a connectivity ping, e.g. the Redis client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckerConfig holds configuration for health checkers
type CheckerConfig struct {
	Timeout time.Duration
}

// DefaultCheckerConfig returns default configuration for health checkers
func DefaultCheckerConfig() CheckerConfig {
	return CheckerConfig{
		Timeout: 2 * time.Second,
	}
}

// PingChecker wraps a Pinger as a readiness check.
func PingChecker(p Pinger, cfg CheckerConfig) Checker {
	return func() error {
		if p == nil {
			return fmt.Errorf("client is nil")
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("ping failed: %w", err)
		}
		return nil
	}
}

// HTTPEndpointChecker reports an upstream unhealthy when it answers 5xx or
// cannot be reached.
func HTTPEndpointChecker(url string, cfg CheckerConfig) Checker {
	client := &http.Client{Timeout: cfg.Timeout}
	return func() error {
		resp, err := client.Get(url)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("status code: %d", resp.StatusCode)
		}
		return nil
	}
}
