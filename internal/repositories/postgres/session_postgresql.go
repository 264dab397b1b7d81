package postgres

import (
	"context"
	"errors"

	"github.com/quizlive/session-service/internal/models"
	"github.com/quizlive/session-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionPostgreSQL struct {
	db *gorm.DB
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{db: db}
}

func (s SessionPostgreSQL) Create(ctx context.Context, session *models.Session) error {
	err := s.db.WithContext(ctx).Create(session).Error
	// The only unique constraint on sessions is the live join code index.
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repositories.ErrDuplicateJoinCode
	}
	return err
}

func (s SessionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Session, error) {
	var session models.Session
	if err := s.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (s SessionPostgreSQL) GetByIDAndCode(ctx context.Context, id uint, joinCode string) (*models.Session, error) {
	var session models.Session
	if err := s.db.WithContext(ctx).
		Where("id = ? AND join_code = ?", id, joinCode).
		First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (s SessionPostgreSQL) GetByCode(ctx context.Context, joinCode string) (*models.Session, error) {
	var session models.Session
	if err := s.db.WithContext(ctx).
		Where("join_code = ? AND status != ?", joinCode, models.SessionCompleted).
		First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (s SessionPostgreSQL) CodeInUse(ctx context.Context, joinCode string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("join_code = ? AND status != ?", joinCode, models.SessionCompleted).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s SessionPostgreSQL) Update(ctx context.Context, session *models.Session) error {
	return s.db.WithContext(ctx).Save(session).Error
}

func (s SessionPostgreSQL) UpdateStatusFrom(ctx context.Context, id uint, expected, next models.SessionStatus, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{"status": next}
	for k, v := range fields {
		updates[k] = v
	}
	res := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s SessionPostgreSQL) AdvanceCursor(ctx context.Context, id uint, fromIndex, toIndex int) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND status = ? AND current_index = ?", id, models.SessionInProgress, fromIndex).
		Update("current_index", toIndex)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s SessionPostgreSQL) AddParticipant(ctx context.Context, sessionID uint, participantID string) (bool, error) {
	entry := models.SessionParticipant{
		SessionID:     sessionID,
		ParticipantID: participantID,
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "participant_id"}},
			DoNothing: true,
		}).
		Create(&entry)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s SessionPostgreSQL) ListParticipants(ctx context.Context, sessionID uint) ([]models.SessionParticipant, error) {
	var participants []models.SessionParticipant
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("joined_at ASC").
		Find(&participants).Error; err != nil {
		return nil, err
	}
	return participants, nil
}

func (s SessionPostgreSQL) HasParticipant(ctx context.Context, sessionID uint, participantID string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.SessionParticipant{}).
		Where("session_id = ? AND participant_id = ?", sessionID, participantID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s SessionPostgreSQL) CountParticipants(ctx context.Context, sessionID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.SessionParticipant{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}

func (s SessionPostgreSQL) List(ctx context.Context, filters repositories.SessionFilters) ([]*models.Session, int64, error) {
	var sessions []*models.Session
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Session{})
	query = s.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = s.applyPaginationAndSort(query, filters)
	if err := query.Preload("Quiz").Find(&sessions).Error; err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

func (s SessionPostgreSQL) GetByHost(ctx context.Context, hostID string, filters repositories.SessionFilters) ([]*models.Session, int64, error) {
	filters.HostID = &hostID
	return s.List(ctx, filters)
}

func (s SessionPostgreSQL) applyFilters(query *gorm.DB, filters repositories.SessionFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.HostID != nil {
		query = query.Where("host_id = ?", *filters.HostID)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

func (s SessionPostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.SessionFilters) *gorm.DB {
	sortBy := filters.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	sortOrder := filters.SortOrder
	if sortOrder != "asc" {
		sortOrder = "desc"
	}
	query = query.Order(sortBy + " " + sortOrder)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
