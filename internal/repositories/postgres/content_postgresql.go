package postgres

import (
	"context"

	"github.com/quizlive/session-service/internal/models"
	"github.com/quizlive/session-service/internal/repositories"
	"gorm.io/gorm"
)

type ContentPostgreSQL struct {
	db *gorm.DB
}

func NewContentPostgreSQL(db *gorm.DB) repositories.ContentRepository {
	return &ContentPostgreSQL{db: db}
}

func (c ContentPostgreSQL) GetQuizByID(ctx context.Context, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := c.db.WithContext(ctx).First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (c ContentPostgreSQL) GetQuestionsByQuiz(ctx context.Context, quizID uint) ([]*models.Question, error) {
	var questions []*models.Question
	if err := c.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("id ASC").
		Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (c ContentPostgreSQL) GetSlidesByQuiz(ctx context.Context, quizID uint) ([]*models.Slide, error) {
	var slides []*models.Slide
	if err := c.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("position ASC").
		Find(&slides).Error; err != nil {
		return nil, err
	}
	return slides, nil
}

func (c ContentPostgreSQL) GetQuestionByID(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	if err := c.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (c ContentPostgreSQL) GetSlideByID(ctx context.Context, id uint) (*models.Slide, error) {
	var slide models.Slide
	if err := c.db.WithContext(ctx).First(&slide, id).Error; err != nil {
		return nil, err
	}
	return &slide, nil
}

func (c ContentPostgreSQL) GetQuestionsByIDs(ctx context.Context, ids []uint) ([]*models.Question, error) {
	var questions []*models.Question
	if len(ids) == 0 {
		return questions, nil
	}
	if err := c.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (c ContentPostgreSQL) GetSlidesByIDs(ctx context.Context, ids []uint) ([]*models.Slide, error) {
	var slides []*models.Slide
	if len(ids) == 0 {
		return slides, nil
	}
	if err := c.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&slides).Error; err != nil {
		return nil, err
	}
	return slides, nil
}
