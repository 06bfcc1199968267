// Package ws pushes dashboard events (enrollments, deletions, camera status)
// to logged-in browsers over websocket.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

type EventType string

const (
	EventStudentEnrolled EventType = "student.enrolled"
	EventStudentDeleted  EventType = "student.deleted"
	EventCameraStatus    EventType = "camera.status"
)

type Event struct {
	Type      EventType `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub fans events out to every connected client. The last camera.status is
// kept and sent to clients as they join, so a freshly opened dashboard does
// not wait for the next status change.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     *slog.Logger

	mu         sync.RWMutex
	lastCamera []byte
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With("component", "ws"),
	}
}

// Run até ctx ser cancelado; então fecha todos os clientes. Run só pode ser
// chamado uma vez.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case c := <-h.register:
			h.join(c)
		case c := <-h.unregister:
			h.leave(c)
		case event := <-h.broadcast:
			h.fanOut(event)
		}
	}
}

// add entrega c ao loop; false quando o hub já parou.
func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) join(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = struct{}{}
	if h.lastCamera != nil {
		select {
		case c.send <- h.lastCamera:
		default:
		}
	}
	h.logger.Debug("client joined", "client_id", c.id, "username", c.username, "clients", len(h.clients))
}

func (h *Hub) leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(c)
}

// drop exige h.mu.
func (h *Hub) drop(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.logger.Debug("client left", "client_id", c.id, "clients", len(h.clients))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.drop(c)
	}
}

func (h *Hub) fanOut(event Event) {
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("encode event", "type", event.Type, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if event.Type == EventCameraStatus {
		h.lastCamera = message
	}
	for c := range h.clients {
		select {
		case c.send <- message:
		default:
			h.logger.Warn("dropping slow client", "client_id", c.id)
			h.drop(c)
		}
	}
}

// Broadcast never blocks; events are discarded while the queue is full.
func (h *Hub) Broadcast(eventType string, data any) {
	event := Event{Type: EventType(eventType), Data: data, Timestamp: time.Now()}
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("event queue full, dropping event", "type", eventType)
	}
}

func (h *Hub) ConnectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
