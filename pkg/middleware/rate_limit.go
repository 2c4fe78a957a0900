package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/maproute/pkg/common"
	"github.com/richxcame/maproute/pkg/logger"
	"github.com/richxcame/maproute/pkg/ratelimit"
	"go.uber.org/zap"
)

// RateLimit limits requests per client IP and route. A nil limiter disables
// it; a failing Redis lets traffic through.
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	if limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		endpointPath := c.FullPath()
		if endpointPath == "" {
			endpointPath = c.Request.URL.Path
		}
		endpointKey := fmt.Sprintf("%s:%s", c.Request.Method, endpointPath)

		identity := c.ClientIP()
		if identity == "" {
			identity = "unknown"
		}

		rule := limiter.RuleFor(endpointKey)
		if rule.Limit <= 0 {
			c.Next()
			return
		}

		result, err := limiter.Allow(c.Request.Context(), endpointKey, identity, rule)
		if err != nil {
			logger.WarnContext(c.Request.Context(), "rate limit evaluation failed",
				zap.String("endpoint", endpointKey),
				zap.String("identity", identity),
				zap.Error(err),
			)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(result.Remaining, 0)))
		c.Header("X-RateLimit-Reset", strconv.Itoa(max(int(result.ResetAfter.Round(time.Second)/time.Second), 0)))

		if result.Allowed {
			c.Next()
			return
		}

		retrySeconds := max(int(result.RetryAfter.Round(time.Second)/time.Second), 1)
		c.Header("Retry-After", strconv.Itoa(retrySeconds))

		logger.WarnContext(c.Request.Context(), "rate limit exceeded",
			zap.String("endpoint", endpointKey),
			zap.String("identity", identity),
			zap.Int("retry_after_seconds", retrySeconds),
		)

		common.ErrorResponse(c, http.StatusTooManyRequests, "rate limit exceeded")
		c.Abort()
	}
}
