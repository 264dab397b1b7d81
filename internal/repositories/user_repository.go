package repositories

import (
	"context"

	"github.com/quizlive/session-service/internal/models"
)

// ParticipantDirectory resolves participant and host identities. The session
// service is not the owner of user data, so the contract is read-only.
type ParticipantDirectory interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
}
