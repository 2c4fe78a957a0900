package routing

import (
	"github.com/gin-gonic/gin"
	"github.com/richxcame/maproute/pkg/common"
	"github.com/richxcame/maproute/pkg/geo"
)

// Handler exposes one-shot route lookups.
type Handler struct {
	service *Service
}

// NewHandler creates a new routing handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers routing routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/route", h.GetRoute)
}

type routeQuery struct {
	From string `form:"from" binding:"required,notblank"`
	To   string `form:"to" binding:"required,notblank"`
}

// GetRoute handles route requests
// @Summary Fetch a driving route
// @Tags Routing
// @Produce json
// @Param from query string true "origin as lat,lon"
// @Param to query string true "destination as lat,lon"
// @Success 200 {object} RouteResult
// @Failure 400 {object} common.Response
// @Failure 502 {object} common.Response
// @Router /api/v1/route [get]
func (h *Handler) GetRoute(c *gin.Context) {
	var q routeQuery
	if !common.BindQuery(c, &q) {
		return
	}

	from, err := geo.Parse(q.From)
	if err != nil {
		common.AppErrorResponse(c, common.NewBadRequestError("invalid from coordinate", err))
		return
	}
	to, err := geo.Parse(q.To)
	if err != nil {
		common.AppErrorResponse(c, common.NewBadRequestError("invalid to coordinate", err))
		return
	}

	result, err := h.service.FetchRoute(c.Request.Context(), &from, &to)
	if common.HandleServiceError(c, err, "failed to fetch route") {
		return
	}

	common.SuccessResponse(c, result)
}
