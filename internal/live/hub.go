// Package live pushes rendered page documents to connected browsers.
package live

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"fuel-dashboard-backend/internal/page"
)

const (
	writeWait      = 5 * time.Second
	clientBuffer   = 8
	broadcastQueue = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// Source provides the view sent to a client right after it connects.
type Source interface {
	View() page.View
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub keeps the set of websocket clients and broadcasts views to them.
type Hub struct {
	source    Source
	mu        sync.RWMutex
	clients   map[*client]struct{}
	broadcast chan []byte
}

// NewHub creates a hub whose new clients receive source's current view.
func NewHub(source Source) *Hub {
	return &Hub{
		source:    source,
		clients:   make(map[*client]struct{}),
		broadcast: make(chan []byte, broadcastQueue),
	}
}

// Publish queues a view for every connected client. Views are dropped when
// the queue is full; the next tick carries a complete document anyway.
func (h *Hub) Publish(v page.View) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Error encoding view %d: %v", v.Version, err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		log.Printf("Broadcast queue full, dropping view %d", v.Version)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run fans queued views out until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return
		case data := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					// Slow consumer.
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ServeHTTP upgrades the request and streams views until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	if data, err := json.Marshal(h.source.View()); err == nil {
		c.send <- data
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.remove(c)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readLoop discards client messages and unregisters on disconnect.
func (h *Hub) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}
