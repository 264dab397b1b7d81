package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/quizlive/session-service/internal/services"
	"github.com/quizlive/session-service/internal/utils"
	"github.com/quizlive/session-service/internal/ws"
)

type HandlerManager struct {
	sessionHandler *SessionHandler
	answerHandler  *AnswerHandler
	wsHandler      *WSHandler
}

func NewHandlerManager(
	sessionService services.SessionService,
	sequencerService services.SequencerService,
	answerService services.AnswerService,
	exportService services.ExportService,
	hub *ws.Hub,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler: NewSessionHandler(sessionService, sequencerService, logger),
		answerHandler:  NewAnswerHandler(answerService, exportService, logger),
		wsHandler:      NewWSHandler(hub, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.CreateSession)
			sessions.POST("/join", hm.sessionHandler.JoinSession)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.GET("/:id/state", hm.sessionHandler.GetSessionState)

			// Lifecycle transitions require the join code in the body as a
			// second identity factor.
			sessions.POST("/:id/start", hm.sessionHandler.StartSession)
			sessions.POST("/:id/advance", hm.sessionHandler.AdvanceSession)
			sessions.POST("/:id/end", hm.sessionHandler.EndSession)

			sessions.POST("/:id/answers", hm.answerHandler.SubmitAnswer)
			sessions.GET("/:id/answers", hm.answerHandler.GetSessionAnswers)
			sessions.GET("/:id/answers/:question_id", hm.answerHandler.GetQuestionAnswers)
			sessions.GET("/:id/export", hm.answerHandler.ExportSessionResults)

			sessions.GET("/host/:host_id", hm.sessionHandler.GetSessionsByHost)
		}
	}

	// Live event stream
	router.GET("/ws/sessions/:id", hm.wsHandler.HandleWebSocket)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "session-service",
		})
	})
}
