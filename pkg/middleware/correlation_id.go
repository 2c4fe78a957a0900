package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/maproute/pkg/httpclient"
	"github.com/richxcame/maproute/pkg/logger"
)

const (
	// CorrelationIDHeader is shared with httpclient so the routes service
	// forwards the same id to the geocode proxy.
	CorrelationIDHeader = httpclient.CorrelationIDHeader
	// RequestIDHeader is what load balancers usually stamp instead.
	RequestIDHeader = "X-Request-ID"
	// CorrelationIDKey is the gin context key for the correlation ID
	CorrelationIDKey = "correlation_id"

	maxCorrelationIDLength = 128
)

// CorrelationID reuses the caller's correlation ID or mints a UUID, and
// puts it on the request context, the gin context and the response.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := incomingCorrelationID(c)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		c.Set(CorrelationIDKey, correlationID)

		// logger and httpclient read it from here
		ctx := logger.ContextWithCorrelationID(c.Request.Context(), correlationID)
		c.Request = c.Request.WithContext(ctx)

		c.Writer.Header().Set(CorrelationIDHeader, correlationID)

		c.Next()
	}
}

// incomingCorrelationID prefers our own header over a proxy's request id.
// Values that would be unsafe in logs or headers are dropped.
func incomingCorrelationID(c *gin.Context) string {
	for _, header := range []string{CorrelationIDHeader, RequestIDHeader} {
		if id := strings.TrimSpace(c.GetHeader(header)); validCorrelationID(id) {
			return id
		}
	}
	return ""
}

func validCorrelationID(id string) bool {
	if id == "" || len(id) > maxCorrelationIDLength {
		return false
	}
	if _, err := uuid.Parse(id); err == nil {
		return true
	}
	// opaque ids such as nginx's 32-char hex $request_id
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return false
		}
	}
	return true
}

// GetCorrelationID extracts correlation ID from gin context
func GetCorrelationID(c *gin.Context) string {
	if id, exists := c.Get(CorrelationIDKey); exists {
		if correlationID, ok := id.(string); ok {
			return correlationID
		}
	}
	return logger.CorrelationIDFromContext(c.Request.Context())
}
