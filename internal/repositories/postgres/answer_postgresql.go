package postgres

import (
	"context"

	"github.com/quizlive/session-service/internal/models"
	"github.com/quizlive/session-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

func (a AnswerPostgreSQL) Insert(ctx context.Context, answer *models.SessionAnswer) (bool, error) {
	res := a.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "session_id"}, {Name: "question_id"}, {Name: "participant_id"},
			},
			DoNothing: true,
		}).
		Create(answer)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (a AnswerPostgreSQL) UpdateValue(ctx context.Context, sessionID, questionID uint, participantID string, value []byte, timeTaken float64) error {
	return a.db.WithContext(ctx).
		Model(&models.SessionAnswer{}).
		Where("session_id = ? AND question_id = ? AND participant_id = ?", sessionID, questionID, participantID).
		Updates(map[string]interface{}{
			"value":      value,
			"time_taken": timeTaken,
		}).Error
}

func (a AnswerPostgreSQL) GetByTriple(ctx context.Context, sessionID, questionID uint, participantID string) (*models.SessionAnswer, error) {
	var answer models.SessionAnswer
	if err := a.db.WithContext(ctx).
		Where("session_id = ? AND question_id = ? AND participant_id = ?", sessionID, questionID, participantID).
		First(&answer).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (a AnswerPostgreSQL) GetBySession(ctx context.Context, sessionID uint) ([]*models.SessionAnswer, error) {
	var answers []*models.SessionAnswer
	if err := a.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (a AnswerPostgreSQL) GetBySessionAndQuestion(ctx context.Context, sessionID, questionID uint) ([]*models.SessionAnswer, error) {
	var answers []*models.SessionAnswer
	if err := a.db.WithContext(ctx).
		Where("session_id = ? AND question_id = ?", sessionID, questionID).
		Order("created_at ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (a AnswerPostgreSQL) CountBySession(ctx context.Context, sessionID uint) (int64, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&models.SessionAnswer{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}

func (a AnswerPostgreSQL) CountBySessionAndQuestion(ctx context.Context, sessionID, questionID uint) (int64, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&models.SessionAnswer{}).
		Where("session_id = ? AND question_id = ?", sessionID, questionID).
		Count(&count).Error
	return count, err
}
