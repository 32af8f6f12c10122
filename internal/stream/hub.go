// Package stream broadcasts market events to WebSocket subscribers.
package stream

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"creator-token-engine/internal/domain"
)

// HubConfig configures WebSocket hub behavior.
type HubConfig struct {
	// WriteTimeout is timeout for writing messages to a subscriber.
	WriteTimeout time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// SendBuffer is per-subscriber outbound queue size. Slow subscribers
	// that fall behind the buffer are disconnected.
	SendBuffer int
}

// DefaultHubConfig returns default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		WriteTimeout: 10 * time.Second,
		PingInterval: 30 * time.Second,
		SendBuffer:   64,
	}
}

// eventFrame is the wire representation of a market event.
type eventFrame struct {
	EventID   string `json:"event_id"`
	Type      string `json:"type"`
	EntityID  string `json:"entity_id"`
	Actor     string `json:"actor"`
	Amount    string `json:"amount"`
	Fee       string `json:"fee"`
	Timestamp int64  `json:"timestamp_ms"`
}

// Hub fans market events out to connected WebSocket clients.
// It implements domain.EventSink so it can sit on the event fan-out
// next to the persistent stores.
type Hub struct {
	config   HubConfig
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  atomic.Bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// Compile-time interface check.
var _ domain.EventSink = (*Hub)(nil)

// NewHub creates a hub. A nil config uses defaults; a nil logger discards
// connection errors.
func NewHub(config *HubConfig, logger *log.Logger) *Hub {
	cfg := DefaultHubConfig()
	if config != nil {
		cfg = *config
	}
	return &Hub{
		config: cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Publish broadcasts an event to all connected subscribers. Subscribers
// whose send queue is full are dropped rather than blocking the caller.
func (h *Hub) Publish(_ context.Context, ev *domain.MarketEvent) error {
	if h.closed.Load() {
		return nil
	}

	frame := eventFrame{
		EventID:   ev.EventID,
		Type:      string(ev.Type),
		EntityID:  ev.EntityID,
		Actor:     ev.Actor.String(),
		Amount:    ev.Amount.String(),
		Fee:       ev.Fee.String(),
		Timestamp: ev.Timestamp,
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.dropLocked(c)
		}
	}
	return nil
}

// ServeWS upgrades an HTTP request and registers the connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	if h.closed.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logf("websocket upgrade: %v", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, h.config.SendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)
	go h.readLoop(c)
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects all subscribers and rejects new connections.
func (h *Hub) Close() {
	if !h.closed.CompareAndSwap(false, true) {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.dropLocked(c)
	}
}

// writeLoop drains the send queue and keeps the connection alive with pings.
func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(h.config.PingInterval)
	defer ticker.Stop()
	defer c.conn.Close()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(h.config.WriteTimeout))
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.drop(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(c)
				return
			}
		case <-c.done:
			return
		}
	}
}

// readLoop discards inbound messages and detects disconnects.
func (h *Hub) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

func (h *Hub) dropLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.done)
	c.conn.Close()
}

func (h *Hub) logf(format string, args ...any) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}
