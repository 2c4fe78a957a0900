package resolver

import (
	"github.com/gin-gonic/gin"
	"github.com/richxcame/maproute/pkg/common"
	"github.com/richxcame/maproute/pkg/geo"
)

// Handler exposes one-shot resolution.
type Handler struct {
	resolver Resolver
}

// NewHandler creates a new resolver handler
func NewHandler(resolver Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// RegisterRoutes registers resolver routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/resolve", h.Resolve)
}

type resolveQuery struct {
	Query     string   `form:"q"`
	Latitude  *float64 `form:"lat" binding:"omitempty,latitude"`
	Longitude *float64 `form:"lon" binding:"omitempty,longitude"`
}

// Resolve handles GET /api/v1/resolve?q=&lat=&lon=. lat and lon form the
// fallback used for a blank q and must be given together.
func (h *Handler) Resolve(c *gin.Context) {
	var q resolveQuery
	if !common.BindQuery(c, &q) {
		return
	}

	var fallback *geo.Coordinate
	switch {
	case q.Latitude != nil && q.Longitude != nil:
		fallback = &geo.Coordinate{Latitude: *q.Latitude, Longitude: *q.Longitude}
	case q.Latitude != nil || q.Longitude != nil:
		common.AppErrorResponse(c, common.NewBadRequestError("lat and lon must be provided together", nil))
		return
	}

	res := h.resolver.Resolve(c.Request.Context(), q.Query, fallback)
	common.SuccessResponse(c, res.View())
}
