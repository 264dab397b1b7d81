package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quizlive/session-service/internal/services"
	"github.com/quizlive/session-service/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging functionality for all handlers
type BaseHandler struct {
	logger utils.Logger
}

// NewBaseHandler creates a new base handler with logging capability
func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{
		logger: logger,
	}
}

// LogRequest logs incoming HTTP requests with context information
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"remote_addr", c.ClientIP(),
		"request_id", c.GetHeader("X-Request-ID"),
	}
	fields = append(fields, additionalFields...)

	h.logger.Info(message, fields...)
}

// LogError logs error details with context information
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"request_id", c.GetHeader("X-Request-ID"),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	fields = append(fields, additionalFields...)

	h.logger.LogError(err, message, fields...)
}

// parseIDParam parses a numeric path parameter, responding 400 and returning
// zero when it is missing or malformed.
func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "must be a positive integer",
		})
		return 0
	}
	return uint(id)
}

// handleServiceError maps service-layer failures onto HTTP statuses. The
// mapping mirrors the error taxonomy: NotFound 404, InvalidState 409 with
// the current state attached, Conflict 409, ExhaustedSequence 410,
// validation 400, anything else a generic 500.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var invalidState *services.InvalidStateError
	if errors.As(err, &invalidState) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Session is in the wrong state for this operation",
			Code:    "invalid_state",
			Details: map[string]interface{}{
				"session_id":     invalidState.SessionID,
				"current_status": invalidState.Current,
				"operation":      invalidState.Operation,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Session not found",
			Code:    "not_found",
		})
	case errors.Is(err, services.ErrQuizNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Quiz not found",
			Code:    "not_found",
		})
	case errors.Is(err, services.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Question not found",
			Code:    "not_found",
		})
	case errors.Is(err, services.ErrSlideNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Slide not found",
			Code:    "not_found",
		})
	case errors.Is(err, services.ErrParticipantNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Participant not found",
			Code:    "not_found",
		})
	case errors.Is(err, services.ErrNoAnswers):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "No answers recorded for this question in this session",
			Code:    "not_found",
		})
	case errors.Is(err, services.ErrAlreadyJoined):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Participant already joined this session",
			Code:    "already_joined",
		})
	case errors.Is(err, services.ErrSequenceExhausted):
		c.JSON(http.StatusGone, ErrorResponse{
			Message: "No remaining content in this session",
			Code:    "exhausted",
		})
	case errors.Is(err, services.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
	default:
		h.LogError(c, err, "Unhandled service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
