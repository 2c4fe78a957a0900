package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/maproute/pkg/logger"
	"go.uber.org/zap"
)

// RequestLogger logs one line per HTTP request.
func RequestLogger(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("service", serviceName),
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.Int("response_size", c.Writer.Size()),
		}

		reqLogger := logger.WithContext(c.Request.Context())

		switch {
		case len(c.Errors) > 0:
			fields = append(fields, zap.String("errors", c.Errors.String()))
			reqLogger.Error("Request completed with errors", fields...)
		case c.Writer.Status() >= 500:
			reqLogger.Error("Request failed", fields...)
		default:
			reqLogger.Info("Request completed", fields...)
		}
	}
}
