package websocket

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/richxcame/maproute/pkg/logger"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// origin policy is enforced by the CORS middleware
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Serve upgrades the request and subscribes the connection to room. The
// optional initial message is delivered before any broadcast.
func Serve(c *gin.Context, hub *Hub, room string, initial *Message) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WarnContext(c.Request.Context(), "failed to upgrade websocket", zap.Error(err))
		return
	}

	client := NewClient(room, conn, hub)
	if initial != nil {
		if initial.Timestamp.IsZero() {
			initial.Timestamp = time.Now().UTC()
		}
		client.send <- initial
	}

	if !hub.Register(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
