// Package notifications broadcasts project lifecycle transitions to
// subscribed WebSocket clients (dashboards, marketplace frontends).
package notifications

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// StatusEvent is one lifecycle transition pushed to subscribers.
type StatusEvent struct {
	Type      string    `json:"type"`
	ProjectID string    `json:"project_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub fans status events out to connected clients.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*client]bool
	broadcast chan StatusEvent
	upgrader  websocket.Upgrader
	logger    *zap.Logger
}

type client struct {
	conn *websocket.Conn
	send chan StatusEvent
}

// NewHub creates the hub and starts its broadcast loop.
func NewHub(logger *zap.Logger) *Hub {
	h := &Hub{
		clients:   make(map[*client]bool),
		broadcast: make(chan StatusEvent, 256),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
	go h.run()
	return h
}

// StatusChanged implements the registry Notifier interface.
func (h *Hub) StatusChanged(projectID string, from, to string) {
	event := StatusEvent{
		Type:      "status_changed",
		ProjectID: projectID,
		From:      from,
		To:        to,
		Timestamp: time.Now(),
	}
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("notification buffer full, dropping event",
			zap.String("project_id", projectID))
	}
}

// HandleConnection upgrades an HTTP request to a WebSocket subscription.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{conn: conn, send: make(chan StatusEvent, 64)}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

func (h *Hub) run() {
	for event := range h.broadcast {
		h.mu.RLock()
		for c := range h.clients {
			select {
			case c.send <- event:
			default:
				// Slow consumer, skip this event for it.
			}
		}
		h.mu.RUnlock()
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		close(c.send)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	}
}
