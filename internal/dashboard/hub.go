// Package dashboard serves the live web dashboard: the latest frame over
// HTTP, pushed frames over websocket and a small alert control panel.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"QuoteBoard/internal/metrics"
	"QuoteBoard/internal/model"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// envelope is the websocket message shape.
type envelope struct {
	Type  string       `json:"type"`
	Frame *model.Frame `json:"frame,omitempty"`
}

type client struct {
	conn *websocket.Conn
	out  chan []byte
}

// Hub holds the single latest-frame slot and fans frames out to websocket
// clients. It implements render.Surface.
type Hub struct {
	latest  atomic.Pointer[model.Frame]
	metrics *metrics.Metrics

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub creates an empty Hub.
func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		metrics: m,
		clients: make(map[*client]struct{}),
	}
}

// Render replaces the displayed frame and pushes it to every client.
// Slow clients miss frames rather than block the polling loop.
func (h *Hub) Render(_ context.Context, frame *model.Frame) error {
	data, err := json.Marshal(envelope{Type: "frame", Frame: frame})
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	h.latest.Store(frame)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.out <- data:
		default:
			log.Printf("[WARN] dashboard client %s is slow, frame dropped", c.conn.RemoteAddr())
		}
	}
	return nil
}

// Latest returns the most recently rendered frame, or nil before the first cycle.
func (h *Hub) Latest() *model.Frame {
	return h.latest.Load()
}

// Clients returns the number of connected websocket clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and streams frames until the client leaves.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WARN] websocket upgrade: %v", err)
		return
	}
	c := &client{conn: conn, out: make(chan []byte, sendBuffer)}

	// Greet with the current frame so a new tab is never blank.
	if f := h.latest.Load(); f != nil {
		if data, err := json.Marshal(envelope{Type: "frame", Frame: f}); err == nil {
			c.out <- data
		}
	}

	h.add(c)
	done := make(chan struct{})
	go h.writeLoop(c, done)
	h.readLoop(c)
	close(done)
	h.remove(c)
	conn.Close()
}

// readLoop only drains control frames; clients do not send data.
func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client, done <-chan struct{}) {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case data := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.conn.Close()
				return
			}
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.conn.Close()
				return
			}
		case <-done:
			return
		}
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.metrics.WSClients.Set(float64(n))
	log.Printf("[INFO] dashboard client connected: %s (%d total)", c.conn.RemoteAddr(), n)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	h.metrics.WSClients.Set(float64(n))
	log.Printf("[INFO] dashboard client disconnected: %s (%d total)", c.conn.RemoteAddr(), n)
}
