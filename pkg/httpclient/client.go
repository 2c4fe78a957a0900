package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/richxcame/maproute/pkg/logger"
	"github.com/richxcame/maproute/pkg/resilience"
)

// CorrelationIDHeader is propagated on every outbound request.
const CorrelationIDHeader = "X-Correlation-ID"

// maxBodyBytes caps how much of an upstream response is read.
const maxBodyBytes = 8 << 20

// Client wraps http.Client with convenience methods and retry support
type Client struct {
	httpClient     *http.Client
	baseURL        string
	defaultHeaders map[string]string
	retryConfig    *resilience.RetryConfig
	name           string
}

// Option configures the HTTP client
type Option func(*Client)

// WithRetry enables retry logic with the given configuration
func WithRetry(config resilience.RetryConfig) Option {
	return func(c *Client) {
		if config.RetryableChecker == nil {
			config.RetryableChecker = isHTTPRetryable
		}
		c.retryConfig = &config
	}
}

// WithDefaultRetry enables default retry configuration
func WithDefaultRetry() Option {
	return WithRetry(resilience.DefaultRetryConfig())
}

// WithHeader sets a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if value != "" {
			c.defaultHeaders[key] = value
		}
	}
}

// WithName labels retry metrics for this client.
func WithName(name string) Option {
	return func(c *Client) {
		c.name = name
	}
}

// WithHTTPClient swaps the underlying transport, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new HTTP client
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:        strings.TrimRight(baseURL, "/"),
		defaultHeaders: map[string]string{"Accept": "application/json"},
		name:           "http",
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get makes a GET request. path may already carry a query string; query is
// appended when non-empty.
func (c *Client) Get(ctx context.Context, path string, query url.Values, headers map[string]string) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		target += sep + query.Encode()
	}

	if c.retryConfig == nil {
		return c.doGet(ctx, target, headers)
	}

	result, err := resilience.RetryWithName(ctx, *c.retryConfig, func(ctx context.Context) (interface{}, error) {
		return c.doGet(ctx, target, headers)
	}, c.name)
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

// GetJSON performs Get and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, headers map[string]string, out interface{}) error {
	body, err := c.Get(ctx, path, query, headers)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}

	return nil
}

func (c *Client) doGet(ctx context.Context, target string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range c.defaultHeaders {
		req.Header.Set(key, value)
	}
	injectCorrelationID(ctx, req)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	return respBody, nil
}

// HTTPError represents an HTTP error response
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// StatusCode extracts the upstream status from err, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

func isHTTPRetryable(err error) bool {
	if err == nil {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return resilience.IsRetryableHTTPStatus(httpErr.StatusCode)
	}

	// network issues and timeouts
	return true
}

func injectCorrelationID(ctx context.Context, req *http.Request) {
	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		req.Header.Set(CorrelationIDHeader, correlationID)
	}
}
