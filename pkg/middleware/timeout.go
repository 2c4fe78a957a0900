package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
	"github.com/richxcame/maproute/pkg/common"
	"github.com/richxcame/maproute/pkg/logger"
	"go.uber.org/zap"
)

// RequestTimeout answers 504 when a handler runs longer than d. Not suitable
// for websocket routes because the buffered writer cannot be hijacked.
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	return timeout.New(
		timeout.WithTimeout(d),
		timeout.WithResponse(func(c *gin.Context) {
			logger.WarnContext(c.Request.Context(), "Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.Duration("timeout", d),
			)
			c.JSON(http.StatusGatewayTimeout, common.Response{
				Success: false,
				Error: &common.ErrorInfo{
					Code:      http.StatusGatewayTimeout,
					ErrorCode: common.CodeUpstreamError,
					Message:   "Request timeout",
				},
			})
		}),
	)
}
