package geocode

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/maproute/pkg/common"
	"github.com/richxcame/maproute/pkg/logger"
	"go.uber.org/zap"
)

// Handler exposes the geocode proxy endpoint.
type Handler struct {
	service *Service
}

// NewHandler creates a new geocode handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the proxy route.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/api/geocode", h.Geocode)
}

// Geocode handles GET /api/geocode?location=<text>. The body is either a
// one-element array of decimal-string coordinates or {"error": "..."}.
func (h *Handler) Geocode(c *gin.Context) {
	match, err := h.service.Lookup(c.Request.Context(), c.Query("location"))
	if err != nil {
		if appErr, ok := common.AsAppError(err); ok {
			c.JSON(appErr.Code, ErrorBody{Error: appErr.Message})
			return
		}
		logger.ErrorContext(c.Request.Context(), "geocode failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorBody{Error: MsgInternal})
		return
	}

	c.JSON(http.StatusOK, []Match{*match})
}
