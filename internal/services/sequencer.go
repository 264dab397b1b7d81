package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/quizlive/session-service/internal/events"
	"github.com/quizlive/session-service/internal/models"
	"github.com/quizlive/session-service/internal/repositories"
	"gorm.io/datatypes"
)

// SequencerService linearizes a quiz's questions and slides into one
// deterministic traversal order and moves a session's cursor through it.
// The order is computed once at session start and frozen onto the session,
// so quiz edits never change an in-flight traversal.
type SequencerService interface {
	Advance(ctx context.Context, sessionID uint, joinCode string) (*AdvanceResponse, error)
}

type AdvanceResponse struct {
	SessionID uint               `json:"session_id"`
	Index     int                `json:"index"`
	Total     int                `json:"total"`
	ItemType  models.ContentType `json:"item_type"`
	Question  *models.Question   `json:"question,omitempty"`
	Slide     *models.Slide      `json:"slide,omitempty"`
}

type sequencerService struct {
	repo   repositories.Repository
	logger *slog.Logger
	broadcaster
}

func NewSequencerService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger) SequencerService {
	return &sequencerService{
		repo:        repo,
		logger:      logger,
		broadcaster: broadcaster{publisher: publisher, logger: logger},
	}
}

func (s *sequencerService) Advance(ctx context.Context, sessionID uint, joinCode string) (*AdvanceResponse, error) {
	session, err := s.repo.Session().GetByIDAndCode(ctx, sessionID, joinCode)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if session.Status != models.SessionInProgress {
		return nil, NewInvalidStateError(session.ID, session.Status, "advance")
	}

	sequence, err := DecodeSequence(session.ContentOrder)
	if err != nil {
		return nil, err
	}

	next := session.CurrentIndex + 1
	if next >= len(sequence) {
		return nil, ErrSequenceExhausted
	}

	moved, err := s.repo.Session().AdvanceCursor(ctx, session.ID, session.CurrentIndex, next)
	if err != nil {
		return nil, fmt.Errorf("failed to advance cursor: %w", err)
	}
	if !moved {
		// Lost the race against a concurrent Advance. Converge on the
		// winner's position instead of moving the cursor a second time;
		// only the winner notifies.
		current, err := s.repo.Session().GetByID(ctx, session.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload session: %w", err)
		}
		if current.CurrentIndex < 0 || current.CurrentIndex >= len(sequence) {
			return nil, ErrSequenceExhausted
		}
		return s.resolveItem(ctx, current.ID, current.CurrentIndex, sequence)
	}

	resp, err := s.resolveItem(ctx, session.ID, next, sequence)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Session advanced",
		"session_id", session.ID,
		"index", next,
		"item_type", resp.ItemType)

	event := events.SessionAdvancedEvent{
		SessionID: session.ID,
		Index:     next,
		ItemType:  resp.ItemType,
	}
	// The image reference is passed through unchanged; resolution to a
	// displayable URL happens downstream.
	switch resp.ItemType {
	case models.ContentQuestion:
		event.Item = resp.Question
		event.ImageRef = resp.Question.ImageRef
	case models.ContentSlide:
		event.Item = resp.Slide
		event.ImageRef = resp.Slide.ImageRef
	}
	s.publish(ctx, events.EventSessionAdvanced, session.ID, event)

	return resp, nil
}

func (s *sequencerService) resolveItem(ctx context.Context, sessionID uint, index int, sequence []models.ContentRef) (*AdvanceResponse, error) {
	ref := sequence[index]
	resp := &AdvanceResponse{
		SessionID: sessionID,
		Index:     index,
		Total:     len(sequence),
		ItemType:  ref.Type,
	}

	switch ref.Type {
	case models.ContentQuestion:
		question, err := s.repo.Content().GetQuestionByID(ctx, ref.ID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrQuestionNotFound
			}
			return nil, fmt.Errorf("failed to get question: %w", err)
		}
		resp.Question = question
	case models.ContentSlide:
		slide, err := s.repo.Content().GetSlideByID(ctx, ref.ID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrSlideNotFound
			}
			return nil, fmt.Errorf("failed to get slide: %w", err)
		}
		resp.Slide = slide
	default:
		return nil, fmt.Errorf("unknown content type %q at index %d", ref.Type, index)
	}

	return resp, nil
}

// ===== SEQUENCE CONSTRUCTION =====

// BuildSequence computes the traversal order for a quiz. When the quiz
// carries an explicit item order it wins; otherwise all questions (in
// repository order) are followed by all slides.
func BuildSequence(quiz *models.Quiz, questions []*models.Question, slides []*models.Slide) []models.ContentRef {
	if len(quiz.ItemOrder) > 0 {
		var explicit []models.ContentRef
		if err := json.Unmarshal(quiz.ItemOrder, &explicit); err == nil && len(explicit) > 0 {
			return filterResolvable(explicit, questions, slides)
		}
	}

	sequence := make([]models.ContentRef, 0, len(questions)+len(slides))
	for _, q := range questions {
		sequence = append(sequence, models.ContentRef{ID: q.ID, Type: models.ContentQuestion})
	}
	for _, sl := range slides {
		sequence = append(sequence, models.ContentRef{ID: sl.ID, Type: models.ContentSlide})
	}
	return sequence
}

// filterResolvable drops explicit-order entries whose item no longer exists,
// so a stale order list cannot make Advance dereference a deleted item.
func filterResolvable(explicit []models.ContentRef, questions []*models.Question, slides []*models.Slide) []models.ContentRef {
	questionIDs := make(map[uint]bool, len(questions))
	for _, q := range questions {
		questionIDs[q.ID] = true
	}
	slideIDs := make(map[uint]bool, len(slides))
	for _, sl := range slides {
		slideIDs[sl.ID] = true
	}

	sequence := make([]models.ContentRef, 0, len(explicit))
	for _, ref := range explicit {
		switch ref.Type {
		case models.ContentQuestion:
			if questionIDs[ref.ID] {
				sequence = append(sequence, ref)
			}
		case models.ContentSlide:
			if slideIDs[ref.ID] {
				sequence = append(sequence, ref)
			}
		}
	}
	return sequence
}

// EncodeSequence serializes a traversal order for freezing onto a session.
func EncodeSequence(sequence []models.ContentRef) (datatypes.JSON, error) {
	raw, err := json.Marshal(sequence)
	if err != nil {
		return nil, fmt.Errorf("failed to encode content sequence: %w", err)
	}
	return datatypes.JSON(raw), nil
}

// DecodeSequence reads a session's frozen traversal order.
func DecodeSequence(raw datatypes.JSON) ([]models.ContentRef, error) {
	if len(raw) == 0 {
		return nil, ErrSequenceNotFrozen
	}
	var sequence []models.ContentRef
	if err := json.Unmarshal(raw, &sequence); err != nil {
		return nil, fmt.Errorf("failed to decode content sequence: %w", err)
	}
	return sequence, nil
}
