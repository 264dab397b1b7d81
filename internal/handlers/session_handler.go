package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quizlive/session-service/internal/repositories"
	"github.com/quizlive/session-service/internal/services"
	"github.com/quizlive/session-service/internal/utils"
)

type SessionHandler struct {
	BaseHandler
	sessionService   services.SessionService
	sequencerService services.SequencerService
}

func NewSessionHandler(
	sessionService services.SessionService,
	sequencerService services.SequencerService,
	logger utils.Logger,
) *SessionHandler {
	return &SessionHandler{
		BaseHandler:      NewBaseHandler(logger),
		sessionService:   sessionService,
		sequencerService: sequencerService,
	}
}

// CreateSession opens a new session for a quiz
// @Summary Create session
// @Description Creates a waiting session with a fresh join code and join artifact
// @Tags sessions
// @Accept json
// @Produce json
// @Param session body services.CreateSessionRequest true "Session data"
// @Success 201 {object} services.CreateSessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req services.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.sessionService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// JoinSession adds a participant to a waiting session
// @Summary Join session
// @Description Joins a participant to the session addressed by join code
// @Tags sessions
// @Accept json
// @Produce json
// @Param join body services.JoinSessionRequest true "Join data"
// @Success 200 {object} services.JoinSessionResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/join [post]
func (h *SessionHandler) JoinSession(c *gin.Context) {
	var req services.JoinSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.sessionService.Join(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// sessionIdentity pulls the session ID from the path and the join code from
// the request body. Mutating lifecycle calls require both, as a defense
// against stale links addressing the wrong session.
type sessionIdentityRequest struct {
	JoinCode string `json:"join_code" binding:"required"`
}

func (h *SessionHandler) sessionIdentity(c *gin.Context) (uint, string, bool) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return 0, "", false
	}

	var req sessionIdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return 0, "", false
	}
	return id, req.JoinCode, true
}

// StartSession freezes the content order and moves the session to in_progress
// @Summary Start session
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path uint true "Session ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/start [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	id, joinCode, ok := h.sessionIdentity(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Starting session", "session_id", id)

	session, err := h.sessionService.Start(c.Request.Context(), id, joinCode)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// AdvanceSession moves the session cursor to the next content item
// @Summary Advance session
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path uint true "Session ID"
// @Success 200 {object} services.AdvanceResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /sessions/{id}/advance [post]
func (h *SessionHandler) AdvanceSession(c *gin.Context) {
	id, joinCode, ok := h.sessionIdentity(c)
	if !ok {
		return
	}

	resp, err := h.sequencerService.Advance(c.Request.Context(), id, joinCode)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// EndSession completes the session
// @Summary End session
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path uint true "Session ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/end [post]
func (h *SessionHandler) EndSession(c *gin.Context) {
	id, joinCode, ok := h.sessionIdentity(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Ending session", "session_id", id)

	session, err := h.sessionService.End(c.Request.Context(), id, joinCode)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// GetSession retrieves a session by ID
// @Summary Get session
// @Tags sessions
// @Produce json
// @Param id path uint true "Session ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	session, err := h.sessionService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// GetSessionState retrieves the full live state of a session
// @Summary Get session state
// @Tags sessions
// @Produce json
// @Param id path uint true "Session ID"
// @Success 200 {object} services.SessionStateResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/state [get]
func (h *SessionHandler) GetSessionState(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	state, err := h.sessionService.GetState(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// GetSessionsByHost lists sessions created by a host
// @Summary List host sessions
// @Tags sessions
// @Produce json
// @Param host_id path string true "Host ID"
// @Success 200 {object} SuccessResponse
// @Router /sessions/host/{host_id} [get]
func (h *SessionHandler) GetSessionsByHost(c *gin.Context) {
	hostID := ParseStringIDParam(c, "host_id")
	if hostID == "" {
		return
	}

	filters := repositories.SessionFilters{
		Limit:  20,
		Offset: 0,
	}
	if limit := c.Query("limit"); limit != "" {
		if parsed, err := strconv.Atoi(limit); err == nil && parsed > 0 && parsed <= 100 {
			filters.Limit = parsed
		}
	}
	if offset := c.Query("offset"); offset != "" {
		if parsed, err := strconv.Atoi(offset); err == nil && parsed >= 0 {
			filters.Offset = parsed
		}
	}

	sessions, total, err := h.sessionService.ListByHost(c.Request.Context(), hostID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"total":    total,
		"limit":    filters.Limit,
		"offset":   filters.Offset,
	})
}
