package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/richxcame/maproute/pkg/common"
	"github.com/richxcame/maproute/pkg/errors"
	"github.com/richxcame/maproute/pkg/logger"
	"go.uber.org/zap"
)

// SentryMiddleware attaches a Sentry hub to every request.
func SentryMiddleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})
}

// ErrorHandler reports unexpected errors and 5xx responses to Sentry.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		errors.AddBreadcrumbForRequest(c.Request.Method, c.Request.URL.Path, statusCode, duration)

		for _, err := range c.Errors {
			if errors.ShouldReportError(err.Err, statusCode) {
				errors.CaptureErrorWithContext(c.Request.Context(), err.Err, map[string]interface{}{
					"route":       c.FullPath(),
					"status_code": statusCode,
					"duration_ms": duration.Milliseconds(),
				})
			}
		}

		if statusCode >= http.StatusInternalServerError && len(c.Errors) == 0 {
			hub := sentrygin.GetHubFromContext(c)
			if hub == nil {
				hub = sentry.CurrentHub().Clone()
			}
			hub.WithScope(func(scope *sentry.Scope) {
				scope.SetRequest(c.Request)
				scope.SetLevel(sentry.LevelError)
				scope.SetTag("correlation_id", GetCorrelationID(c))
				hub.CaptureMessage(fmt.Sprintf("HTTP %d: %s %s", statusCode, c.Request.Method, c.FullPath()))
			})
		}
	}
}

// RecoveryWithSentry recovers from panics, reports them and answers 500.
func RecoveryWithSentry() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.ErrorContext(c.Request.Context(), "panic recovered",
					zap.Any("panic", err),
					zap.ByteString("stack", debug.Stack()),
				)

				hub := sentrygin.GetHubFromContext(c)
				if hub == nil {
					hub = sentry.CurrentHub().Clone()
				}
				hub.Scope().SetRequest(c.Request)
				hub.RecoverWithContext(c.Request.Context(), err)

				c.AbortWithStatusJSON(http.StatusInternalServerError, common.Response{
					Success: false,
					Error: &common.ErrorInfo{
						Code:      http.StatusInternalServerError,
						ErrorCode: common.CodeInternalError,
						Message:   "Internal server error",
					},
				})
			}
		}()

		c.Next()
	}
}
