package repositories

import (
	"errors"
	"time"

	"github.com/quizlive/session-service/internal/models"
	"gorm.io/gorm"
)

// Repository aggregates the per-concern repositories behind one accessor,
// so services depend on a single constructor argument.
type Repository interface {
	Session() SessionRepository
	Answer() AnswerRepository
	Content() ContentRepository
	Directory() ParticipantDirectory
}

// ===== SHARED FILTER STRUCTS =====

type SessionFilters struct {
	Status    *models.SessionStatus `json:"status"`
	HostID    *string               `json:"host_id"`
	DateFrom  *time.Time            `json:"date_from"`
	DateTo    *time.Time            `json:"date_to"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
	SortBy    string                `json:"sort_by"`    // "created_at", "started_at"
	SortOrder string                `json:"sort_order"` // "asc", "desc"
}

// ===== ERROR HELPERS =====

// IsNotFoundError reports whether err is the storage layer's missing-record
// condition, as opposed to an unreachable-store failure.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
