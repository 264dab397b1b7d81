package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/quizlive/session-service/internal/utils"
	"github.com/quizlive/session-service/internal/ws"
)

type WSHandler struct {
	BaseHandler
	hub *ws.Hub
}

func NewWSHandler(hub *ws.Hub, logger utils.Logger) *WSHandler {
	return &WSHandler{
		BaseHandler: NewBaseHandler(logger),
		hub:         hub,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket subscribes a client to a session's broadcast events
// @Summary WebSocket connection for session updates
// @Description Connect via WebSocket to receive real-time session events
// @Tags websocket
// @Param id path uint true "Session ID"
// @Router /ws/sessions/{id} [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	sessionID := h.parseIDParam(c, "id")
	if sessionID == 0 {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.LogError(c, err, "Websocket upgrade failed", "session_id", sessionID)
		return
	}

	h.hub.AddConnection(sessionID, conn)
	defer h.hub.RemoveConnection(sessionID, conn)

	// Clients only listen; drain reads until the peer goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
