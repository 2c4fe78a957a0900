package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/maproute/pkg/resilience"
)

// Status values reported for dependencies and the service as a whole.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// DependencyStatus represents the health status of a single dependency
type DependencyStatus struct {
	Name      string        `json:"name"`
	Status    string        `json:"status"`
	Critical  bool          `json:"critical"`
	Latency   time.Duration `json:"latency_ms"`
	Message   string        `json:"message,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
}

// BreakerStatus represents the status of a circuit breaker
type BreakerStatus struct {
	Name   string `json:"name"`
	State  string `json:"state"`
	Allows bool   `json:"allows_requests"`
}

// DeepHealthStatus is the body served on /health/deep.
type DeepHealthStatus struct {
	Status       string                      `json:"status"`
	Version      string                      `json:"version,omitempty"`
	Uptime       time.Duration               `json:"uptime_seconds"`
	Dependencies map[string]DependencyStatus `json:"dependencies"`
	Breakers     map[string]BreakerStatus    `json:"circuit_breakers,omitempty"`
	CheckedAt    time.Time                   `json:"checked_at"`
}

type dependency struct {
	check    Checker
	critical bool
}

// DeepChecker aggregates dependency checks and breaker states. Results are
// cached for CacheTTL so the endpoint can be polled cheaply.
type DeepChecker struct {
	mu           sync.RWMutex
	dependencies map[string]dependency
	breakers     map[string]*resilience.CircuitBreaker
	version      string
	startTime    time.Time
	cacheTTL     time.Duration
	lastResult   *DeepHealthStatus
	lastChecked  time.Time
}

// DeepCheckerConfig holds configuration for the deep checker
type DeepCheckerConfig struct {
	Version  string
	CacheTTL time.Duration
}

// DefaultDeepCheckerConfig returns sensible defaults
func DefaultDeepCheckerConfig() DeepCheckerConfig {
	return DeepCheckerConfig{
		Version:  "unknown",
		CacheTTL: 10 * time.Second,
	}
}

// NewDeepChecker creates a new deep health checker
func NewDeepChecker(config DeepCheckerConfig) *DeepChecker {
	return &DeepChecker{
		dependencies: make(map[string]dependency),
		breakers:     make(map[string]*resilience.CircuitBreaker),
		version:      config.Version,
		startTime:    time.Now(),
		cacheTTL:     config.CacheTTL,
	}
}

// AddDependency registers a check. A failing critical dependency makes the
// service unhealthy; any other failure only degrades it.
func (d *DeepChecker) AddDependency(name string, check Checker, critical bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dependencies[name] = dependency{check: check, critical: critical}
	d.lastResult = nil
}

// AddCircuitBreaker adds a circuit breaker to monitor. Nil breakers are ignored.
func (d *DeepChecker) AddCircuitBreaker(breaker *resilience.CircuitBreaker) {
	if breaker == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.breakers[breaker.Name()] = breaker
	d.lastResult = nil
}

// Check performs a deep health check on all dependencies
func (d *DeepChecker) Check(ctx context.Context) *DeepHealthStatus {
	d.mu.RLock()
	if d.lastResult != nil && time.Since(d.lastChecked) < d.cacheTTL {
		result := d.lastResult
		d.mu.RUnlock()
		return result
	}
	deps := make(map[string]dependency, len(d.dependencies))
	for name, dep := range d.dependencies {
		deps[name] = dep
	}
	breakers := make(map[string]*resilience.CircuitBreaker, len(d.breakers))
	for name, b := range d.breakers {
		breakers[name] = b
	}
	d.mu.RUnlock()

	status := &DeepHealthStatus{
		Status:       StatusHealthy,
		Version:      d.version,
		Uptime:       time.Since(d.startTime),
		Dependencies: make(map[string]DependencyStatus, len(deps)),
		Breakers:     make(map[string]BreakerStatus, len(breakers)),
		CheckedAt:    time.Now(),
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for name, dep := range deps {
		wg.Add(1)
		go func(name string, dep dependency) {
			defer wg.Done()
			depStatus := runDependency(ctx, name, dep)
			mu.Lock()
			status.Dependencies[name] = depStatus
			status.Status = worst(status.Status, depStatus)
			mu.Unlock()
		}(name, dep)
	}
	wg.Wait()

	for name, breaker := range breakers {
		allows := breaker.Allow()
		state := "closed"
		if !allows {
			state = "open"
			if status.Status == StatusHealthy {
				status.Status = StatusDegraded
			}
		}
		status.Breakers[name] = BreakerStatus{Name: name, State: state, Allows: allows}
	}

	d.mu.Lock()
	d.lastResult = status
	d.lastChecked = time.Now()
	d.mu.Unlock()

	return status
}

func runDependency(ctx context.Context, name string, dep dependency) DependencyStatus {
	start := time.Now()
	result := DependencyStatus{Name: name, Critical: dep.critical, CheckedAt: start}

	done := make(chan error, 1)
	go func() { done <- dep.check() }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = fmt.Errorf("check abandoned: %w", ctx.Err())
	}

	result.Latency = time.Since(start)
	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = err.Error()
		return result
	}
	result.Status = StatusHealthy
	return result
}

func worst(current string, dep DependencyStatus) string {
	if dep.Status == StatusHealthy || current == StatusUnhealthy {
		return current
	}
	if dep.Critical {
		return StatusUnhealthy
	}
	return StatusDegraded
}

// GinHandler serves the deep status. Degraded still answers 200.
func (d *DeepChecker) GinHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := d.Check(c.Request.Context())

		httpStatus := http.StatusOK
		if status.Status == StatusUnhealthy {
			httpStatus = http.StatusServiceUnavailable
		}
		c.JSON(httpStatus, status)
	}
}

// IsReady returns true unless a critical dependency is failing.
func (d *DeepChecker) IsReady(ctx context.Context) bool {
	return d.Check(ctx).Status != StatusUnhealthy
}
