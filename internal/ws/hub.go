package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/quizlive/session-service/internal/events"
)

// writeWait bounds how long one broadcast write may block on a slow client.
const writeWait = 10 * time.Second

// client wraps a connection with its own write mutex, so a stalled peer only
// delays writes to itself rather than the whole hub.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Hub fans broadcast events out to the websocket clients watching each
// session. It is fed by the event forwarder, so every instance behind a load
// balancer delivers the same events regardless of which instance handled
// the triggering request.
type Hub struct {
	mu       sync.RWMutex
	sessions map[uint]map[*websocket.Conn]*client
	logger   *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		sessions: make(map[uint]map[*websocket.Conn]*client),
		logger:   logger,
	}
}

func (h *Hub) AddConnection(sessionID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[*websocket.Conn]*client)
	}
	h.sessions[sessionID][conn] = &client{conn: conn}
	h.logger.Debug("Websocket client connected",
		"session_id", sessionID,
		"client_count", len(h.sessions[sessionID]))
}

func (h *Hub) RemoveConnection(sessionID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.sessions[sessionID]; ok {
		delete(conns, conn)
		conn.Close()
		if len(conns) == 0 {
			delete(h.sessions, sessionID)
		}
		h.logger.Debug("Websocket client disconnected", "session_id", sessionID)
	}
}

// Broadcast delivers an event to every client watching its session. The
// connection set is snapshotted under the registry lock and written outside
// it, so one stalled client cannot hold up registrations or broadcasts to
// other sessions. Write failures evict the client; delivery is best effort.
func (h *Hub) Broadcast(event events.BroadcastEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to marshal websocket event", "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.sessions[event.SessionID]))
	for _, c := range h.sessions[event.SessionID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	var failed []*websocket.Conn
	for _, c := range clients {
		c.mu.Lock()
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := c.conn.WriteMessage(websocket.TextMessage, data)
		c.mu.Unlock()
		if err != nil {
			h.logger.Warn("Websocket write failed, dropping client",
				"session_id", event.SessionID,
				"error", err)
			failed = append(failed, c.conn)
		}
	}

	for _, conn := range failed {
		h.RemoveConnection(event.SessionID, conn)
	}
}

// ClientCount reports how many clients are watching a session.
func (h *Hub) ClientCount(sessionID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}
