package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/richxcame/maproute/pkg/config"
	"github.com/richxcame/maproute/pkg/logger"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned when the breaker refuses a request because it is open.
var ErrCircuitOpen = errors.New("circuit breaker open")

// Operation represents a call wrapped by the circuit breaker.
type Operation func(ctx context.Context) (interface{}, error)

// Settings defines runtime options for the circuit breaker.
type Settings struct {
	Name             string
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
	SuccessThreshold uint32
	// IsSuccessful decides whether an error counts against the breaker.
	// Defaults to treating caller cancellation as success.
	IsSuccessful func(err error) bool
}

// CircuitBreaker wraps gobreaker with defaults suitable for our upstreams.
type CircuitBreaker struct {
	name    string
	breaker *gobreaker.CircuitBreaker
}

// BuildSettings maps the breaker config for one upstream into Settings.
func BuildSettings(cfg config.CircuitBreakerConfig, name string) Settings {
	s := cfg.SettingsFor(name)
	return Settings{
		Name:             name,
		Interval:         time.Duration(s.IntervalSeconds) * time.Second,
		Timeout:          time.Duration(s.TimeoutSeconds) * time.Second,
		FailureThreshold: uint32(s.FailureThreshold),
		SuccessThreshold: uint32(s.SuccessThreshold),
	}
}

// NewFromConfig returns nil when breakers are disabled; a nil breaker runs
// operations directly.
func NewFromConfig(cfg config.CircuitBreakerConfig, name string) *CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}
	return NewCircuitBreaker(BuildSettings(cfg, name))
}

// NewCircuitBreaker constructs a breaker with logging and metrics.
func NewCircuitBreaker(settings Settings) *CircuitBreaker {
	name := nextBreakerName(settings.Name)

	threshold := settings.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	isSuccessful := settings.IsSuccessful
	if isSuccessful == nil {
		isSuccessful = func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		}
	}

	breakerSettings := gobreaker.Settings{
		Name:     name,
		Timeout:  settings.Timeout,
		Interval: settings.Interval,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Get().Info("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			recordBreakerStateChange(name, from, to)
		},
	}

	if settings.SuccessThreshold > 0 {
		breakerSettings.MaxRequests = settings.SuccessThreshold
	}

	recordBreakerState(name, gobreaker.StateClosed)

	return &CircuitBreaker{
		name:    name,
		breaker: gobreaker.NewCircuitBreaker(breakerSettings),
	}
}

// Name returns the breaker's metric label.
func (c *CircuitBreaker) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// Execute runs the supplied operation through the breaker.
func (c *CircuitBreaker) Execute(ctx context.Context, operation Operation) (interface{}, error) {
	if operation == nil {
		return nil, errors.New("operation cannot be nil")
	}

	if c == nil || c.breaker == nil {
		return operation(ctx)
	}

	recordBreakerRequest(c.name)
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return operation(ctx)
	})
	if err == nil {
		return result, nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		recordBreakerRejection(c.name)
		return nil, ErrCircuitOpen
	}

	recordBreakerFailure(c.name)
	return nil, err
}

// Allow reports whether the breaker would allow a request without executing it.
func (c *CircuitBreaker) Allow() bool {
	if c == nil || c.breaker == nil {
		return true
	}
	return c.breaker.State() != gobreaker.StateOpen
}

// Call is the typed form of Execute.
func Call[T any](ctx context.Context, c *CircuitBreaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	result, err := c.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, nil
	}
	return typed, nil
}
