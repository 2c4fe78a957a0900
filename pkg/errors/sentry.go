package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/richxcame/maproute/pkg/common"
	"github.com/richxcame/maproute/pkg/config"
	"github.com/richxcame/maproute/pkg/logger"
)

// ErrSentryDisabled is returned by InitSentry when no DSN is configured.
var ErrSentryDisabled = stderrors.New("sentry DSN is not configured")

// InitSentry initializes the Sentry SDK for one service.
func InitSentry(cfg config.SentryConfig, environment, serviceName, release string) error {
	if cfg.DSN == "" {
		return ErrSentryDisabled
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      environment,
		Release:          release,
		TracesSampleRate: cfg.TracesSampleRate,
		EnableTracing:    cfg.TracesSampleRate > 0,
		ServerName:       serviceName,
		AttachStacktrace: true,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			if event.Level == sentry.LevelInfo || event.Level == sentry.LevelDebug {
				return nil
			}
			return event
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize sentry: %w", err)
	}

	return nil
}

// Flush flushes the Sentry buffer
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// CaptureErrorWithContext reports err tagged with the request correlation id.
func CaptureErrorWithContext(ctx context.Context, err error, extras map[string]interface{}) *sentry.EventID {
	if err == nil {
		return nil
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}

	var eventID *sentry.EventID
	hub.WithScope(func(scope *sentry.Scope) {
		for key, value := range extras {
			scope.SetExtra(key, value)
		}
		if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
			scope.SetTag("correlation_id", correlationID)
		}
		if sessionID := logger.SessionIDFromContext(ctx); sessionID != "" {
			scope.SetTag("session_id", sessionID)
		}
		eventID = hub.CaptureException(err)
	})

	return eventID
}

// AddBreadcrumbForRequest adds a breadcrumb for HTTP request
func AddBreadcrumbForRequest(method, url string, statusCode int, duration time.Duration) {
	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Type:      "http",
		Category:  "http.request",
		Level:     sentry.LevelInfo,
		Message:   fmt.Sprintf("%s %s", method, url),
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"method":      method,
			"url":         url,
			"status_code": statusCode,
			"duration_ms": duration.Milliseconds(),
		},
	})
}

// IsBusinessError reports errors that describe bad input or missing data
// rather than a fault in this service.
func IsBusinessError(err error) bool {
	switch common.ErrorCodeOf(err) {
	case common.CodeInputError, common.CodeNotFound, common.CodeUserError:
		return true
	}
	return false
}

// ShouldReportError determines if an error should be reported to Sentry
func ShouldReportError(err error, statusCode int) bool {
	if err == nil || IsBusinessError(err) {
		return false
	}

	if statusCode >= 400 && statusCode < 500 && statusCode != http.StatusTooManyRequests {
		return false
	}

	return true
}
