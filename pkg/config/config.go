package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Service names understood by Load.
const (
	ServiceGeocode = "geocode"
	ServiceRoutes  = "routes"
)

var defaultPorts = map[string]string{
	ServiceGeocode: "5000",
	ServiceRoutes:  "8081",
}

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	Geocoder   GeocoderConfig
	Router     RouterConfig
	Search     SearchConfig
	RateLimit  RateLimitConfig
	Resilience ResilienceConfig
	Tracing    TracingConfig
	Sentry     SentryConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port                  string
	Environment           string
	ServiceName           string
	LogLevel              string
	ReadTimeout           int
	WriteTimeout          int
	RequestTimeoutSeconds int
	CORSOrigins           string // Comma-separated list of allowed origins
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// GeocoderConfig points at the Nominatim-compatible search backend.
type GeocoderConfig struct {
	BaseURL         string
	UserAgent       string
	Email           string
	TimeoutSeconds  int
	RatePerSecond   float64
	CacheTTLSeconds int
}

// RouterConfig points at the OSRM-compatible routing backend.
type RouterConfig struct {
	BaseURL         string
	Profile         string
	TimeoutSeconds  int
	CacheTTLSeconds int
}

// SearchConfig drives the search workflow sessions.
type SearchConfig struct {
	GeocodeProxyURL    string
	DefaultLatitude    float64
	DefaultLongitude   float64
	CallTimeoutSeconds int
	SessionTTLSeconds  int
}

// RateLimitConfig holds inbound rate limiting configuration. Limits apply per
// client IP and need Redis.
type RateLimitConfig struct {
	Enabled           bool
	WindowSeconds     int
	Limit             int
	Burst             int
	RedisPrefix       string
	EndpointOverrides map[string]EndpointRateLimitConfig
}

// EndpointRateLimitConfig customizes limits for one "METHOD:/path" key.
type EndpointRateLimitConfig struct {
	Limit         int `json:"limit"`
	Burst         int `json:"burst"`
	WindowSeconds int `json:"window_seconds"`
}

// ResilienceConfig groups runtime resilience controls
type ResilienceConfig struct {
	CircuitBreaker CircuitBreakerConfig
}

// CircuitBreakerConfig captures default and per-service breaker tuning
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	SuccessThreshold int
	TimeoutSeconds   int
	IntervalSeconds  int
	ServiceOverrides map[string]CircuitBreakerSettings
}

// CircuitBreakerSettings overrides defaults for a specific upstream service
type CircuitBreakerSettings struct {
	FailureThreshold int `json:"failure_threshold"`
	SuccessThreshold int `json:"success_threshold"`
	TimeoutSeconds   int `json:"timeout_seconds"`
	IntervalSeconds  int `json:"interval_seconds"`
}

// TracingConfig controls the OTLP exporter.
type TracingConfig struct {
	Enabled        bool
	OTLPEndpoint   string
	ServiceVersion string
}

// SentryConfig controls error reporting.
type SentryConfig struct {
	DSN              string
	TracesSampleRate float64
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	defaultPort, ok := defaultPorts[serviceName]
	if !ok {
		defaultPort = "8080"
	}

	environment := getEnv("ENVIRONMENT", "development")

	cfg := &Config{
		Server: ServerConfig{
			Port:                  getEnv("PORT", defaultPort),
			Environment:           environment,
			ServiceName:           serviceName,
			LogLevel:              getEnv("LOG_LEVEL", ""),
			ReadTimeout:           getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout:          getEnvAsInt("WRITE_TIMEOUT", 10),
			RequestTimeoutSeconds: getEnvAsInt("REQUEST_TIMEOUT_SECONDS", 30),
			CORSOrigins:           getEnv("CORS_ORIGINS", "*"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Geocoder: GeocoderConfig{
			BaseURL:         getEnv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:       getEnv("GEOCODER_USER_AGENT", "maproute/1.0"),
			Email:           getEnv("GEOCODER_EMAIL", ""),
			TimeoutSeconds:  getEnvAsInt("GEOCODER_TIMEOUT_SECONDS", 10),
			RatePerSecond:   getEnvAsFloat("GEOCODER_RATE_PER_SECOND", 1),
			CacheTTLSeconds: getEnvAsInt("GEOCODER_CACHE_TTL_SECONDS", 86400),
		},
		Router: RouterConfig{
			BaseURL:         getEnv("ROUTER_BASE_URL", "https://router.project-osrm.org"),
			Profile:         getEnv("ROUTER_PROFILE", "driving"),
			TimeoutSeconds:  getEnvAsInt("ROUTER_TIMEOUT_SECONDS", 10),
			CacheTTLSeconds: getEnvAsInt("ROUTER_CACHE_TTL_SECONDS", 300),
		},
		Search: SearchConfig{
			GeocodeProxyURL:    getEnv("GEOCODE_PROXY_URL", "http://localhost:5000"),
			DefaultLatitude:    getEnvAsFloat("SEARCH_DEFAULT_LAT", 0),
			DefaultLongitude:   getEnvAsFloat("SEARCH_DEFAULT_LON", 0),
			CallTimeoutSeconds: getEnvAsInt("SEARCH_CALL_TIMEOUT_SECONDS", 10),
			SessionTTLSeconds:  getEnvAsInt("SEARCH_SESSION_TTL_SECONDS", 3600),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvAsBool("RATE_LIMIT_ENABLED", false),
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
			Limit:         getEnvAsInt("RATE_LIMIT_LIMIT", 60),
			Burst:         getEnvAsInt("RATE_LIMIT_BURST", 20),
			RedisPrefix:   getEnv("RATE_LIMIT_REDIS_PREFIX", "rate-limit"),
		},
		Resilience: ResilienceConfig{
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:          getEnvAsBool("CB_ENABLED", true),
				FailureThreshold: getEnvAsInt("CB_FAILURE_THRESHOLD", 5),
				SuccessThreshold: getEnvAsInt("CB_SUCCESS_THRESHOLD", 1),
				TimeoutSeconds:   getEnvAsInt("CB_TIMEOUT_SECONDS", 30),
				IntervalSeconds:  getEnvAsInt("CB_INTERVAL_SECONDS", 60),
			},
		},
		Tracing: TracingConfig{
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
			OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceVersion: getEnv("SERVICE_VERSION", "1.0.0"),
		},
		Sentry: SentryConfig{
			DSN:              getEnv("SENTRY_DSN", ""),
			TracesSampleRate: getEnvAsFloat("SENTRY_TRACES_SAMPLE_RATE", 0.1),
		},
	}

	if breakerOverrides := getEnv("CB_SERVICE_OVERRIDES", ""); breakerOverrides != "" {
		var serviceConfig map[string]CircuitBreakerSettings
		if err := json.Unmarshal([]byte(breakerOverrides), &serviceConfig); err != nil {
			return nil, fmt.Errorf("invalid CB_SERVICE_OVERRIDES value: %w", err)
		}
		cfg.Resilience.CircuitBreaker.ServiceOverrides = serviceConfig
	}

	if overrides := getEnv("RATE_LIMIT_ENDPOINTS", ""); overrides != "" {
		var endpointConfig map[string]EndpointRateLimitConfig
		if err := json.Unmarshal([]byte(overrides), &endpointConfig); err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT_ENDPOINTS value: %w", err)
		}
		cfg.RateLimit.EndpointOverrides = endpointConfig
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.applyFloors()

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Search.DefaultLatitude < -90 || c.Search.DefaultLatitude > 90 {
		return fmt.Errorf("invalid SEARCH_DEFAULT_LAT %v: must be within [-90, 90]", c.Search.DefaultLatitude)
	}
	if c.Search.DefaultLongitude < -180 || c.Search.DefaultLongitude > 180 {
		return fmt.Errorf("invalid SEARCH_DEFAULT_LON %v: must be within [-180, 180]", c.Search.DefaultLongitude)
	}
	if c.Geocoder.RatePerSecond < 0 {
		return fmt.Errorf("invalid GEOCODER_RATE_PER_SECOND %v: must not be negative", c.Geocoder.RatePerSecond)
	}
	return nil
}

func (c *Config) applyFloors() {
	cb := &c.Resilience.CircuitBreaker
	if cb.TimeoutSeconds <= 0 {
		cb.TimeoutSeconds = 30
	}
	if cb.IntervalSeconds <= 0 {
		cb.IntervalSeconds = 60
	}
	if cb.FailureThreshold <= 0 {
		cb.FailureThreshold = 5
	}
	if cb.SuccessThreshold <= 0 {
		cb.SuccessThreshold = 1
	}

	if c.Geocoder.TimeoutSeconds <= 0 {
		c.Geocoder.TimeoutSeconds = 10
	}
	if c.Router.TimeoutSeconds <= 0 {
		c.Router.TimeoutSeconds = 10
	}
	if c.Search.CallTimeoutSeconds <= 0 {
		c.Search.CallTimeoutSeconds = 10
	}
	if c.Search.SessionTTLSeconds <= 0 {
		c.Search.SessionTTLSeconds = 3600
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		c.Server.RequestTimeoutSeconds = 30
	}
}

// SettingsFor returns effective breaker settings for a specific upstream service name
func (c CircuitBreakerConfig) SettingsFor(service string) CircuitBreakerSettings {
	settings := CircuitBreakerSettings{
		FailureThreshold: c.FailureThreshold,
		SuccessThreshold: c.SuccessThreshold,
		TimeoutSeconds:   c.TimeoutSeconds,
		IntervalSeconds:  c.IntervalSeconds,
	}

	if override, ok := c.ServiceOverrides[service]; ok {
		if override.FailureThreshold > 0 {
			settings.FailureThreshold = override.FailureThreshold
		}
		if override.SuccessThreshold > 0 {
			settings.SuccessThreshold = override.SuccessThreshold
		}
		if override.TimeoutSeconds > 0 {
			settings.TimeoutSeconds = override.TimeoutSeconds
		}
		if override.IntervalSeconds > 0 {
			settings.IntervalSeconds = override.IntervalSeconds
		}
	}

	if settings.SuccessThreshold <= 0 {
		settings.SuccessThreshold = 1
	}
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = 5
	}
	if settings.TimeoutSeconds <= 0 {
		settings.TimeoutSeconds = 30
	}
	if settings.IntervalSeconds <= 0 {
		settings.IntervalSeconds = 60
	}

	return settings
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Timeout returns the per-request geocoder timeout.
func (c GeocoderConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheTTL returns how long successful lookups stay cached.
func (c GeocoderConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Timeout returns the per-request router timeout.
func (c RouterConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheTTL returns how long computed routes stay cached.
func (c RouterConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// CallTimeout bounds each upstream call made by a search.
func (c SearchConfig) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}

// SessionTTL is how long an idle session is kept.
func (c SearchConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

// RequestTimeout bounds each inbound HTTP request.
func (c ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Window returns the default rate limit window.
func (c RateLimitConfig) Window() time.Duration {
	if c.WindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.WindowSeconds) * time.Second
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
