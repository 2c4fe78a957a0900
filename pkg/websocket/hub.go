package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/richxcame/maproute/pkg/logger"
	"go.uber.org/zap"
)

// Hub fans messages out to clients grouped in rooms. A room is one search
// session; every client in it receives every state the session publishes.
type Hub struct {
	rooms map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan *roomMessage
	done       chan struct{}

	// guards rooms for the read-only accessors
	mu sync.RWMutex
}

type roomMessage struct {
	room    string
	message *Message
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roomMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	logger.Info("WebSocket hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			logger.Info("WebSocket hub stopped")
			return

		case client := <-h.register:
			h.add(client)

		case client := <-h.unregister:
			h.remove(client)

		case rm := <-h.broadcast:
			h.deliver(rm)
		}
	}
}

// Publish queues msg for every client in room. It never blocks once the
// hub has stopped.
func (h *Hub) Publish(room string, msg *Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	select {
	case h.broadcast <- &roomMessage{room: room, message: msg}:
	case <-h.done:
	}
}

// Register adds a client to its room.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// CloseRoom disconnects every client of room, e.g. when a session ends.
func (h *Hub) CloseRoom(room string) {
	h.Publish(room, &Message{Type: MessageTypeClosed, Room: room})
}

// ClientCount returns the number of clients in room.
func (h *Hub) ClientCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// RoomCount returns the number of rooms with at least one client.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[client.Room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[client.Room] = members
	}
	members[client] = struct{}{}

	logger.Debug("websocket client registered",
		zap.String("client_id", client.ID),
		zap.String("room", client.Room),
	)
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	members, ok := h.rooms[client.Room]
	if !ok {
		return
	}
	if _, ok := members[client]; !ok {
		return
	}

	delete(members, client)
	if len(members) == 0 {
		delete(h.rooms, client.Room)
	}
	close(client.send)

	logger.Debug("websocket client unregistered",
		zap.String("client_id", client.ID),
		zap.String("room", client.Room),
	)
}

func (h *Hub) deliver(rm *roomMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.rooms[rm.room] {
		select {
		case client.send <- rm.message:
		default:
			logger.Warn("websocket client too slow, dropping",
				zap.String("client_id", client.ID),
				zap.String("room", rm.room),
			)
			h.removeLocked(client)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, members := range h.rooms {
		for client := range members {
			h.removeLocked(client)
		}
	}
}
