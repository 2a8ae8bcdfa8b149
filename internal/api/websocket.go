// Package api exposes the host API surface over HTTP (gin) and a
// websocket event stream, grounded on tarsy's pkg/api handlers.go and
// websocket.go (gin handlers plus a broadcast hub; the newer echo-based
// server.go in the same package was not used since echo is not part of
// this module's dependency set).
package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSMessage is one event pushed to subscribers: a tick completion or an
// agent turn-stream update.
type WSMessage struct {
	Type string      `json:"type"`
	Tick int         `json:"tick,omitempty"`
	Data interface{} `json:"data,omitempty"`
}

// WSHub fans tick-complete and agent-stream events out to every
// connected subscriber.
type WSHub struct {
	logger *slog.Logger

	clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan WSMessage
	mu         sync.RWMutex
}

// NewWSHub builds a hub. Call Run in its own goroutine before serving
// websocket connections.
func NewWSHub(logger *slog.Logger) *WSHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHub{
		logger:     logger,
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan WSMessage, 256),
	}
}

// Run processes registrations and broadcasts until ctx-independent
// shutdown; callers stop it by letting the process exit, mirroring the
// original hub's unbounded select loop.
func (h *WSHub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			for conn := range h.clients {
				if err := conn.WriteJSON(msg); err != nil {
					h.logger.Warn("websocket write failed", "error", err)
					go func(c *websocket.Conn) { h.unregister <- c }(conn)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues msg for delivery to every connected subscriber.
func (h *WSHub) Broadcast(msgType string, tick int, data interface{}) {
	h.broadcast <- WSMessage{Type: msgType, Tick: tick, Data: data}
}

// HandleWS upgrades the request to a websocket and registers it with
// the hub. The read loop only exists to detect client disconnects and
// answer pings; subscribers never send commands over this channel.
func (h *WSHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	h.register <- conn
	conn.WriteJSON(WSMessage{Type: "connected"})

	go func() {
		defer func() { h.unregister <- conn }()
		for {
			var msg map[string]interface{}
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if msgType, _ := msg["type"].(string); msgType == "ping" {
				conn.WriteJSON(WSMessage{Type: "pong"})
			}
		}
	}()
}
