package casdoor

import (
	"context"
	"fmt"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/quizlive/session-service/internal/models"
	"github.com/quizlive/session-service/internal/repositories"
	"gorm.io/gorm"
)

// UserCasdoor resolves participant identities from a casdoor organization.
// Used when the deployment delegates identity instead of mirroring users
// into the local users table.
type UserCasdoor struct {
	client *casdoorsdk.Client
}

type Config struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Certificate  string
	Organization string
	Application  string
}

func NewUserCasdoor(cfg Config) repositories.ParticipantDirectory {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Certificate,
		cfg.Organization,
		cfg.Application,
	)
	return &UserCasdoor{client: client}
}

func (u UserCasdoor) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := u.client.GetUser(id)
	if err != nil {
		return nil, fmt.Errorf("casdoor user lookup: %w", err)
	}
	if user == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return toUser(user), nil
}

func (u UserCasdoor) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	users := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		user, err := u.GetByID(ctx, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				continue
			}
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (u UserCasdoor) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, err := u.GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func toUser(cu *casdoorsdk.User) *models.User {
	user := &models.User{
		ID:       cu.Name,
		FullName: cu.DisplayName,
		Email:    cu.Email,
		IsActive: !cu.IsForbidden,
	}
	if cu.Avatar != "" {
		avatar := cu.Avatar
		user.AvatarURL = &avatar
	}
	return user
}
