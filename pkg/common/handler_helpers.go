package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/maproute/pkg/logger"
	"go.uber.org/zap"
)

// HandleServiceError handles service errors with consistent patterns.
// Returns true if an error was handled (and response was sent), false otherwise.
//
// Usage:
//
//	route, err := h.service.FetchRoute(ctx, from, to)
//	if HandleServiceError(c, err, "failed to fetch route") {
//	    return
//	}
func HandleServiceError(c *gin.Context, err error, fallbackMessage string) bool {
	if err == nil {
		return false
	}

	if appErr, ok := AsAppError(err); ok {
		if appErr.Code >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request.Context(), appErr.Message, zap.Error(err))
		}
		AppErrorResponse(c, appErr)
		return true
	}

	logger.ErrorContext(c.Request.Context(), fallbackMessage,
		zap.Error(err),
	)

	ErrorResponse(c, http.StatusInternalServerError, fallbackMessage)
	return true
}

// ParseUUIDParam parses a UUID from a URL parameter.
// Returns the UUID and true on success, or sends an error response and returns false on failure.
func ParseUUIDParam(c *gin.Context, paramName, displayName string) (uuid.UUID, bool) {
	paramValue := c.Param(paramName)
	if paramValue == "" {
		AppErrorResponse(c, NewBadRequestError(displayName+" is required", nil))
		return uuid.Nil, false
	}

	id, err := uuid.Parse(paramValue)
	if err != nil {
		AppErrorResponse(c, NewBadRequestError("invalid "+displayName, err))
		return uuid.Nil, false
	}

	return id, true
}

// BindJSON binds JSON request body and sends error response on failure.
// Returns true on success, false on failure (response already sent).
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		AppErrorResponse(c, NewBadRequestError(err.Error(), err))
		return false
	}
	return true
}

// BindQuery binds query parameters and sends error response on failure.
// Returns true on success, false on failure (response already sent).
func BindQuery(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		AppErrorResponse(c, NewBadRequestError(err.Error(), err))
		return false
	}
	return true
}
