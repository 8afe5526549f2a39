// Package ws streams emitted opportunity records to external observers over
// WebSocket connections.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/halcyoncap/arbengine/internal/domain"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufferSize is the channel buffer for outgoing messages per client.
	sendBufferSize = 64
)

// upgrader configures the WebSocket upgrade parameters.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins. In production, restrict this to known origins.
		return true
	},
}

// client represents a single WebSocket connection.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// recordMessage is the JSON frame sent for each emitted record.
type recordMessage struct {
	Type           string `json:"type"`
	ID             string `json:"id"`
	Flow           string `json:"flow"`
	Token          string `json:"token"`
	AmountIn       string `json:"amount_in"`
	AmountReturned string `json:"amount_returned"`
	Succeeded      bool   `json:"succeeded"`
	Reason         string `json:"reason,omitempty"`
	ExecutedAt     string `json:"executed_at"`
}

// Hub manages connected WebSocket clients and fans emitted opportunity
// records out to all of them. It implements the orchestrator's ResultSink.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
	logger  *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]bool),
		logger:  logger.With(slog.String("component", "ws")),
	}
}

// EmitResult broadcasts one opportunity record to every connected client.
// Slow clients are disconnected rather than blocking the emitter.
func (h *Hub) EmitResult(ctx context.Context, res domain.OpportunityResult) {
	msg := recordMessage{
		Type:           "opportunity_result",
		ID:             res.ID,
		Flow:           string(res.Flow),
		Token:          res.Token.Hex(),
		AmountIn:       res.AmountIn.String(),
		AmountReturned: res.AmountReturned.String(),
		Succeeded:      res.Succeeded,
		Reason:         res.Reason,
		ExecutedAt:     res.ExecutedAt.Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.ErrorContext(ctx, "marshal record frame", slog.String("error", err.Error()))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client can't keep up; drop it.
			go h.remove(c)
		}
	}
}

// HandleWS handles GET /ws/results, upgrading the connection and starting
// the client's pumps.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBufferSize)}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	h.logger.InfoContext(r.Context(), "websocket client connected",
		slog.String("remote_addr", r.RemoteAddr),
	)

	go h.writePump(c)
	go h.readPump(c)
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

// remove drops one client.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
		_ = c.conn.Close()
	}
}

// writePump sends queued frames and periodic pings to the client.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.remove(c)
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames, keeping the connection's pong handler
// alive; the stream is one-way.
func (h *Hub) readPump(c *client) {
	defer h.remove(c)

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
