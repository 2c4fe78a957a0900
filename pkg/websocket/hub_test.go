package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/ws/:room", func(c *gin.Context) {
		Serve(c, hub, c.Param("room"), &Message{Type: MessageTypeState, Room: c.Param("room"), Data: "hello"})
	})
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return hub, server
}

func dial(t *testing.T, server *httptest.Server, room string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/" + room
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestServeSendsInitialMessageAndBroadcasts(t *testing.T) {
	hub, server := startHub(t)

	conn := dial(t, server, "session-a")
	other := dial(t, server, "session-b")

	first := readMessage(t, conn)
	assert.Equal(t, MessageTypeState, first.Type)
	assert.Equal(t, "hello", first.Data)
	readMessage(t, other)

	require.Eventually(t, func() bool { return hub.ClientCount("session-a") == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, hub.RoomCount())

	hub.Publish("session-a", &Message{Type: MessageTypeState, Room: "session-a", Data: "update"})

	msg := readMessage(t, conn)
	assert.Equal(t, "update", msg.Data)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestCloseRoomDisconnectsClients(t *testing.T) {
	hub, server := startHub(t)

	conn := dial(t, server, "session-a")
	readMessage(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount("session-a") == 1 }, time.Second, 10*time.Millisecond)

	hub.CloseRoom("session-a")

	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeClosed, msg.Type)

	require.Eventually(t, func() bool { return hub.ClientCount("session-a") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestPublishAfterStopDoesNotBlock(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	for i := 0; i < 300; i++ {
		hub.Publish("room", &Message{Type: MessageTypeState})
	}
}
