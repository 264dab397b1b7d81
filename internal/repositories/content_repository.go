package repositories

import (
	"context"

	"github.com/quizlive/session-service/internal/models"
)

// ContentRepository is the read-only view over quiz content. The session
// service never mutates quizzes, questions, or slides.
type ContentRepository interface {
	GetQuizByID(ctx context.Context, id uint) (*models.Quiz, error)

	// GetQuestionsByQuiz returns the quiz's questions in repository order.
	GetQuestionsByQuiz(ctx context.Context, quizID uint) ([]*models.Question, error)

	// GetSlidesByQuiz returns the quiz's slides ordered by position.
	GetSlidesByQuiz(ctx context.Context, quizID uint) ([]*models.Slide, error)

	GetQuestionByID(ctx context.Context, id uint) (*models.Question, error)
	GetSlideByID(ctx context.Context, id uint) (*models.Slide, error)
	GetQuestionsByIDs(ctx context.Context, ids []uint) ([]*models.Question, error)
	GetSlidesByIDs(ctx context.Context, ids []uint) ([]*models.Slide, error)
}
