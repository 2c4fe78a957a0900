package search

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/maproute/internal/mapview"
	"github.com/richxcame/maproute/pkg/common"
	"github.com/richxcame/maproute/pkg/geo"
	"github.com/richxcame/maproute/pkg/websocket"
)

// Handler exposes search sessions over HTTP and websocket.
type Handler struct {
	manager *Manager
	hub     *websocket.Hub
}

// NewHandler creates a new search handler
func NewHandler(manager *Manager, hub *websocket.Hub) *Handler {
	return &Handler{manager: manager, hub: hub}
}

// RegisterRoutes registers session routes. The websocket route lives in
// RegisterStreamRoutes so it can skip the request timeout middleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	sessions := rg.Group("/sessions")
	{
		sessions.POST("", h.CreateSession)
		sessions.GET("/:id", h.GetSession)
		sessions.DELETE("/:id", h.DeleteSession)
		sessions.POST("/:id/search", h.Search)
		sessions.POST("/:id/swap", h.Swap)
		sessions.POST("/:id/device-location", h.DeviceLocation)
		sessions.GET("/:id/map", h.GetMap)
	}
}

// RegisterStreamRoutes registers long-lived routes.
func (h *Handler) RegisterStreamRoutes(rg *gin.RouterGroup) {
	rg.GET("/sessions/:id/ws", h.Stream)
}

type searchRequest struct {
	InitialQuery     string `json:"initial_query"`
	DestinationQuery string `json:"destination_query"`
}

type deviceLocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" binding:"omitempty,longitude"`
	Error     string   `json:"error"`
}

// CreateSession handles POST /api/v1/sessions
func (h *Handler) CreateSession(c *gin.Context) {
	state, err := h.manager.Create(c.Request.Context())
	if common.HandleServiceError(c, err, "failed to create session") {
		return
	}
	common.CreatedResponse(c, state)
}

// GetSession handles GET /api/v1/sessions/:id
func (h *Handler) GetSession(c *gin.Context) {
	id, ok := common.ParseUUIDParam(c, "id", "session ID")
	if !ok {
		return
	}

	state, err := h.manager.Get(c.Request.Context(), id.String())
	if common.HandleServiceError(c, err, "failed to get session") {
		return
	}
	common.SuccessResponse(c, state)
}

// DeleteSession handles DELETE /api/v1/sessions/:id
func (h *Handler) DeleteSession(c *gin.Context) {
	id, ok := common.ParseUUIDParam(c, "id", "session ID")
	if !ok {
		return
	}

	if common.HandleServiceError(c, h.manager.Delete(c.Request.Context(), id.String()), "failed to delete session") {
		return
	}
	common.SuccessResponse(c, gin.H{"message": "session deleted"})
}

// Search handles POST /api/v1/sessions/:id/search
func (h *Handler) Search(c *gin.Context) {
	var req searchRequest
	if !common.BindJSON(c, &req) {
		return
	}
	h.dispatch(c, Search{InitialQuery: req.InitialQuery, DestinationQuery: req.DestinationQuery})
}

// Swap handles POST /api/v1/sessions/:id/swap
func (h *Handler) Swap(c *gin.Context) {
	h.dispatch(c, Swap{})
}

// DeviceLocation handles POST /api/v1/sessions/:id/device-location. The
// body carries either a position or the error the device reported.
func (h *Handler) DeviceLocation(c *gin.Context) {
	var req deviceLocationRequest
	if !common.BindJSON(c, &req) {
		return
	}

	switch {
	case req.Error != "":
		h.dispatch(c, DeviceLocationFailed{Reason: req.Error})
	case req.Latitude != nil && req.Longitude != nil:
		h.dispatch(c, DeviceLocated{Coordinate: geo.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}})
	default:
		common.AppErrorResponse(c, common.NewBadRequestError("latitude and longitude or error is required", nil))
	}
}

// GetMap handles GET /api/v1/sessions/:id/map. format=geojson returns a
// FeatureCollection instead of the view.
func (h *Handler) GetMap(c *gin.Context) {
	id, ok := common.ParseUUIDParam(c, "id", "session ID")
	if !ok {
		return
	}

	state, err := h.manager.Get(c.Request.Context(), id.String())
	if common.HandleServiceError(c, err, "failed to get session") {
		return
	}

	view := mapview.Render(MapInput(state))
	if c.Query("format") == "geojson" {
		c.JSON(http.StatusOK, view.GeoJSON())
		return
	}
	common.SuccessResponse(c, view)
}

// Stream handles GET /api/v1/sessions/:id/ws
func (h *Handler) Stream(c *gin.Context) {
	id, ok := common.ParseUUIDParam(c, "id", "session ID")
	if !ok {
		return
	}

	state, err := h.manager.Get(c.Request.Context(), id.String())
	if common.HandleServiceError(c, err, "failed to get session") {
		return
	}

	websocket.Serve(c, h.hub, state.SessionID, &websocket.Message{
		Type: websocket.MessageTypeState,
		Room: state.SessionID,
		Data: state,
	})
}

func (h *Handler) dispatch(c *gin.Context, cmd Command) {
	id, ok := common.ParseUUIDParam(c, "id", "session ID")
	if !ok {
		return
	}

	state, err := h.manager.Dispatch(c.Request.Context(), id.String(), cmd)
	if err != nil {
		// notices still carry the resulting state
		if appErr, ok := common.AsAppError(err); ok && state.SessionID != "" {
			common.AppErrorResponseWithData(c, appErr, state)
			return
		}
		common.HandleServiceError(c, err, "failed to apply command")
		return
	}
	common.SuccessResponse(c, state)
}

// MapInput projects a state onto the map view inputs.
func MapInput(s State) mapview.Input {
	return mapview.Input{
		InitialCoordinate:     s.InitialCoordinate,
		DestinationCoordinate: s.DestinationCoordinate,
		Route:                 s.Route,
		InitialLabel:          s.InitialQuery,
		DestinationLabel:      s.DestinationQuery,
	}
}
