package repositories

import (
	"context"
	"errors"

	"github.com/quizlive/session-service/internal/models"
)

// ErrDuplicateJoinCode reports an insert rejected because another
// non-completed session already holds the join code.
var ErrDuplicateJoinCode = errors.New("join code already held by a live session")

// SessionRepository owns the only mutable, concurrency-sensitive state.
// Cursor and participant mutations are conditional writes so racing callers
// resolve at the storage layer rather than by read-then-write.
type SessionRepository interface {
	// Create persists a new session. Returns ErrDuplicateJoinCode when the
	// join code is already held by a non-completed session.
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id uint) (*models.Session, error)
	GetByIDAndCode(ctx context.Context, id uint, joinCode string) (*models.Session, error)

	// GetByCode resolves a join code among sessions not yet completed.
	GetByCode(ctx context.Context, joinCode string) (*models.Session, error)

	// CodeInUse reports whether joinCode is held by any non-completed session.
	CodeInUse(ctx context.Context, joinCode string) (bool, error)

	Update(ctx context.Context, session *models.Session) error

	// UpdateStatusFrom transitions status only when the stored status equals
	// expected. Returns false when the guard failed (someone else moved it).
	UpdateStatusFrom(ctx context.Context, id uint, expected, next models.SessionStatus, fields map[string]interface{}) (bool, error)

	// AdvanceCursor moves current_index from fromIndex to toIndex in a single
	// conditional update. Returns false when another caller won the race.
	AdvanceCursor(ctx context.Context, id uint, fromIndex, toIndex int) (bool, error)

	// AddParticipant appends participantID at most once. Returns false when
	// the participant was already present.
	AddParticipant(ctx context.Context, sessionID uint, participantID string) (bool, error)
	ListParticipants(ctx context.Context, sessionID uint) ([]models.SessionParticipant, error)
	HasParticipant(ctx context.Context, sessionID uint, participantID string) (bool, error)
	CountParticipants(ctx context.Context, sessionID uint) (int64, error)

	List(ctx context.Context, filters SessionFilters) ([]*models.Session, int64, error)
	GetByHost(ctx context.Context, hostID string, filters SessionFilters) ([]*models.Session, int64, error)
}
