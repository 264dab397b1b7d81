package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quizlive/session-service/internal/services"
	"github.com/quizlive/session-service/internal/utils"
)

type AnswerHandler struct {
	BaseHandler
	answerService services.AnswerService
	exportService services.ExportService
}

func NewAnswerHandler(
	answerService services.AnswerService,
	exportService services.ExportService,
	logger utils.Logger,
) *AnswerHandler {
	return &AnswerHandler{
		BaseHandler:   NewBaseHandler(logger),
		answerService: answerService,
		exportService: exportService,
	}
}

// submitAnswerBody is the request payload; the session ID comes from the path.
type submitAnswerBody struct {
	QuestionID    uint        `json:"question_id" binding:"required"`
	ParticipantID string      `json:"participant_id" binding:"required"`
	Value         interface{} `json:"value"`
	TimeTaken     float64     `json:"time_taken"`
}

// SubmitAnswer records or overwrites one participant's answer
// @Summary Submit answer
// @Description Upserts the participant's answer to a question in this session
// @Tags answers
// @Accept json
// @Produce json
// @Param id path uint true "Session ID"
// @Param answer body submitAnswerBody true "Answer data"
// @Success 200 {object} services.SubmitAnswerResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/answers [post]
func (h *AnswerHandler) SubmitAnswer(c *gin.Context) {
	sessionID := h.parseIDParam(c, "id")
	if sessionID == 0 {
		return
	}

	var body submitAnswerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.answerService.Submit(c.Request.Context(), &services.SubmitAnswerRequest{
		SessionID:     sessionID,
		QuestionID:    body.QuestionID,
		ParticipantID: body.ParticipantID,
		Value:         body.Value,
		TimeTaken:     body.TimeTaken,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if resp.IsUpdate {
		status = http.StatusOK
	}
	c.JSON(status, resp)
}

// GetSessionAnswers returns the aggregated results for a whole session
// @Summary Get session answers
// @Tags answers
// @Produce json
// @Param id path uint true "Session ID"
// @Success 200 {object} services.SessionResultsResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/answers [get]
func (h *AnswerHandler) GetSessionAnswers(c *gin.Context) {
	sessionID := h.parseIDParam(c, "id")
	if sessionID == 0 {
		return
	}

	results, err := h.answerService.GetSessionAnswers(c.Request.Context(), sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// GetQuestionAnswers returns the aggregated results for one question
// @Summary Get question answers
// @Tags answers
// @Produce json
// @Param id path uint true "Session ID"
// @Param question_id path uint true "Question ID"
// @Success 200 {object} services.QuestionResult
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/answers/{question_id} [get]
func (h *AnswerHandler) GetQuestionAnswers(c *gin.Context) {
	sessionID := h.parseIDParam(c, "id")
	if sessionID == 0 {
		return
	}
	questionID := h.parseIDParam(c, "question_id")
	if questionID == 0 {
		return
	}

	result, err := h.answerService.GetQuestionAnswers(c.Request.Context(), sessionID, questionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportSessionResults downloads the session results as an Excel workbook
// @Summary Export session results
// @Tags answers
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Session ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/export [get]
func (h *AnswerHandler) ExportSessionResults(c *gin.Context) {
	sessionID := h.parseIDParam(c, "id")
	if sessionID == 0 {
		return
	}

	h.LogRequest(c, "Exporting session results", "session_id", sessionID)

	data, err := h.exportService.ExportSessionResults(c.Request.Context(), sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("session_%d_results.xlsx", sessionID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
