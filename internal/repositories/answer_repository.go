package repositories

import (
	"context"

	"github.com/quizlive/session-service/internal/models"
)

// AnswerRepository stores one record per (session, question, participant).
type AnswerRepository interface {
	// Insert creates the record unless the triple already exists. Returns
	// false without error when a concurrent or earlier submission holds the
	// triple; callers then take the update path.
	Insert(ctx context.Context, answer *models.SessionAnswer) (bool, error)

	// UpdateValue overwrites value and time taken in place, keyed by the
	// triple so it composes with Insert into an atomic upsert.
	UpdateValue(ctx context.Context, sessionID, questionID uint, participantID string, value []byte, timeTaken float64) error

	GetByTriple(ctx context.Context, sessionID, questionID uint, participantID string) (*models.SessionAnswer, error)

	// GetBySession returns all answers ordered by submission time ascending.
	GetBySession(ctx context.Context, sessionID uint) ([]*models.SessionAnswer, error)
	GetBySessionAndQuestion(ctx context.Context, sessionID, questionID uint) ([]*models.SessionAnswer, error)

	CountBySession(ctx context.Context, sessionID uint) (int64, error)
	CountBySessionAndQuestion(ctx context.Context, sessionID, questionID uint) (int64, error)
}
