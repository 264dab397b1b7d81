package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/quizlive/session-service/internal/events"
	"github.com/quizlive/session-service/internal/models"
	"github.com/quizlive/session-service/internal/repositories"
	"github.com/quizlive/session-service/internal/validator"
	"gorm.io/datatypes"
)

// AnswerService accepts answer submissions and computes aggregated views.
// Submissions upsert by (session, question, participant): resubmitting
// overwrites the prior value in place, never creating a second record.
type AnswerService interface {
	Submit(ctx context.Context, req *SubmitAnswerRequest) (*SubmitAnswerResponse, error)
	GetSessionAnswers(ctx context.Context, sessionID uint) (*SessionResultsResponse, error)
	GetQuestionAnswers(ctx context.Context, sessionID, questionID uint) (*QuestionResult, error)
}

// ===== REQUEST/RESPONSE TYPES =====

type SubmitAnswerRequest struct {
	SessionID     uint        `json:"session_id" validate:"required"`
	QuestionID    uint        `json:"question_id" validate:"required"`
	ParticipantID string      `json:"participant_id" validate:"required"`
	Value         interface{} `json:"value"`
	TimeTaken     float64     `json:"time_taken" validate:"gte=0"`
}

type SubmitAnswerResponse struct {
	Answer *models.SessionAnswer `json:"answer"`

	// IsUpdate reports whether this submission overwrote an earlier one.
	IsUpdate bool `json:"is_update"`
}

// AnswerBucket groups participants who gave the same normalized value.
type AnswerBucket struct {
	Value        string              `json:"value"`
	Count        int                 `json:"count"`
	Participants []BucketParticipant `json:"participants"`
}

type BucketParticipant struct {
	ParticipantID string  `json:"participant_id"`
	DisplayName   string  `json:"display_name,omitempty"`
	TimeTaken     float64 `json:"time_taken"`
}

// QuestionResult is the aggregate view for one question within a session.
// Buckets appear in order of first submission; skipped (blank) answers are
// counted separately and never contribute to a bucket.
type QuestionResult struct {
	SessionID    uint             `json:"session_id"`
	Question     *models.Question `json:"question"`
	AnswerCount  int              `json:"answer_count"`
	SkippedCount int              `json:"skipped_count"`
	Buckets      []*AnswerBucket  `json:"buckets"`
}

type ParticipantAnswerEntry struct {
	QuestionID  uint        `json:"question_id"`
	Value       interface{} `json:"value"`
	Skipped     bool        `json:"skipped"`
	TimeTaken   float64     `json:"time_taken"`
	SubmittedAt time.Time   `json:"submitted_at"`
}

// ParticipantAnswers lists one participant's submissions in the order they
// were made.
type ParticipantAnswers struct {
	ParticipantID string                   `json:"participant_id"`
	DisplayName   string                   `json:"display_name,omitempty"`
	Answers       []ParticipantAnswerEntry `json:"answers"`
}

type SessionResultsResponse struct {
	SessionID    uint                  `json:"session_id"`
	QuizID       uint                  `json:"quiz_id"`
	QuizTitle    string                `json:"quiz_title,omitempty"`
	Status       models.SessionStatus  `json:"status"`
	StartedAt    *time.Time            `json:"started_at,omitempty"`
	EndedAt      *time.Time            `json:"ended_at,omitempty"`
	TotalAnswers int                   `json:"total_answers"`
	Questions    []*QuestionResult     `json:"questions"`
	Participants []*ParticipantAnswers `json:"participants"`
}

type answerService struct {
	repo      repositories.Repository
	validator *validator.Validator
	logger    *slog.Logger
	broadcaster
}

func NewAnswerService(
	repo repositories.Repository,
	publisher events.EventPublisher,
	v *validator.Validator,
	logger *slog.Logger,
) AnswerService {
	return &answerService{
		repo:        repo,
		validator:   v,
		logger:      logger,
		broadcaster: broadcaster{publisher: publisher, logger: logger},
	}
}

// ===== SUBMISSION =====

func (s *answerService) Submit(ctx context.Context, req *SubmitAnswerRequest) (*SubmitAnswerResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	session, err := s.repo.Session().GetByID(ctx, req.SessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if session.Status != models.SessionInProgress {
		return nil, NewInvalidStateError(session.ID, session.Status, "submit answer")
	}

	question, err := s.repo.Content().GetQuestionByID(ctx, req.QuestionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if question.QuizID != session.QuizID {
		return nil, ErrQuestionNotFound
	}

	value, err := json.Marshal(req.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answer value: %w", err)
	}

	answer := &models.SessionAnswer{
		SessionID:     req.SessionID,
		QuestionID:    req.QuestionID,
		ParticipantID: req.ParticipantID,
		Value:         datatypes.JSON(value),
		TimeTaken:     req.TimeTaken,
	}

	inserted, err := s.repo.Answer().Insert(ctx, answer)
	if err != nil {
		return nil, fmt.Errorf("failed to store answer: %w", err)
	}
	if !inserted {
		// The triple already exists: overwrite in place. A racing first
		// submission may hold the row; last write wins either way.
		if err := s.repo.Answer().UpdateValue(ctx, req.SessionID, req.QuestionID, req.ParticipantID, value, req.TimeTaken); err != nil {
			return nil, fmt.Errorf("failed to update answer: %w", err)
		}
		answer, err = s.repo.Answer().GetByTriple(ctx, req.SessionID, req.QuestionID, req.ParticipantID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload answer: %w", err)
		}
	}

	s.logger.Info("Answer submitted",
		"session_id", req.SessionID,
		"question_id", req.QuestionID,
		"participant_id", req.ParticipantID,
		"is_update", !inserted)

	s.publish(ctx, events.EventAnswerSubmitted, req.SessionID, events.AnswerSubmittedEvent{
		SessionID:     req.SessionID,
		QuestionID:    req.QuestionID,
		ParticipantID: req.ParticipantID,
		Value:         req.Value,
		TimeTaken:     req.TimeTaken,
		IsUpdate:      !inserted,
	})

	return &SubmitAnswerResponse{Answer: answer, IsUpdate: !inserted}, nil
}

// ===== AGGREGATION =====

func (s *answerService) GetSessionAnswers(ctx context.Context, sessionID uint) (*SessionResultsResponse, error) {
	session, err := s.repo.Session().GetByID(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	answers, err := s.repo.Answer().GetBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}

	agg := newAggregation(s.repo)
	for _, answer := range answers {
		if err := agg.add(ctx, answer); err != nil {
			return nil, err
		}
	}
	agg.resolveNames(ctx, s.logger)

	resp := &SessionResultsResponse{
		SessionID:    session.ID,
		QuizID:       session.QuizID,
		Status:       session.Status,
		StartedAt:    session.StartedAt,
		EndedAt:      session.EndedAt,
		TotalAnswers: len(answers),
		Questions:    agg.questions,
		Participants: agg.participants,
	}

	if quiz, err := s.repo.Content().GetQuizByID(ctx, session.QuizID); err == nil {
		resp.QuizTitle = quiz.Title
	}

	return resp, nil
}

func (s *answerService) GetQuestionAnswers(ctx context.Context, sessionID, questionID uint) (*QuestionResult, error) {
	if _, err := s.repo.Session().GetByID(ctx, sessionID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if _, err := s.repo.Content().GetQuestionByID(ctx, questionID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	answers, err := s.repo.Answer().GetBySessionAndQuestion(ctx, sessionID, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	if len(answers) == 0 {
		return nil, ErrNoAnswers
	}

	agg := newAggregation(s.repo)
	for _, answer := range answers {
		if err := agg.add(ctx, answer); err != nil {
			return nil, err
		}
	}
	agg.resolveNames(ctx, s.logger)

	return agg.questions[0], nil
}

// ===== AGGREGATION STATE =====

// aggregation folds answer records into grouped tallies and per-participant
// views. Records must be fed in ascending submission-time order; bucket and
// participant ordering follows first occurrence.
type aggregation struct {
	repo repositories.Repository

	// questionCache avoids re-fetching a question per answer record.
	questionCache map[uint]*models.Question

	questions     []*QuestionResult
	questionIndex map[uint]*QuestionResult
	bucketIndex   map[uint]map[string]*AnswerBucket

	participants     []*ParticipantAnswers
	participantIndex map[string]*ParticipantAnswers
}

func newAggregation(repo repositories.Repository) *aggregation {
	return &aggregation{
		repo:             repo,
		questionCache:    make(map[uint]*models.Question),
		questionIndex:    make(map[uint]*QuestionResult),
		bucketIndex:      make(map[uint]map[string]*AnswerBucket),
		participantIndex: make(map[string]*ParticipantAnswers),
	}
}

func (a *aggregation) add(ctx context.Context, answer *models.SessionAnswer) error {
	question, err := a.question(ctx, answer.QuestionID)
	if err != nil {
		return err
	}

	result := a.questionIndex[answer.QuestionID]
	if result == nil {
		result = &QuestionResult{
			SessionID: answer.SessionID,
			Question:  question,
			Buckets:   []*AnswerBucket{},
		}
		a.questionIndex[answer.QuestionID] = result
		a.questions = append(a.questions, result)
		a.bucketIndex[answer.QuestionID] = make(map[string]*AnswerBucket)
	}

	key, skipped := tallyKey(answer.Value)

	if skipped {
		result.SkippedCount++
	} else {
		result.AnswerCount++
		bucket := a.bucketIndex[answer.QuestionID][key]
		if bucket == nil {
			bucket = &AnswerBucket{Value: key}
			result.Buckets = append(result.Buckets, bucket)
			a.bucketIndex[answer.QuestionID][key] = bucket
		}
		bucket.Count++
		bucket.Participants = append(bucket.Participants, BucketParticipant{
			ParticipantID: answer.ParticipantID,
			TimeTaken:     answer.TimeTaken,
		})
	}

	view := a.participantIndex[answer.ParticipantID]
	if view == nil {
		view = &ParticipantAnswers{ParticipantID: answer.ParticipantID}
		a.participantIndex[answer.ParticipantID] = view
		a.participants = append(a.participants, view)
	}

	var decoded interface{}
	if len(answer.Value) > 0 {
		if err := json.Unmarshal(answer.Value, &decoded); err != nil {
			decoded = string(answer.Value)
		}
	}
	view.Answers = append(view.Answers, ParticipantAnswerEntry{
		QuestionID:  answer.QuestionID,
		Value:       decoded,
		Skipped:     skipped,
		TimeTaken:   answer.TimeTaken,
		SubmittedAt: answer.CreatedAt,
	})

	return nil
}

func (a *aggregation) question(ctx context.Context, id uint) (*models.Question, error) {
	if q, ok := a.questionCache[id]; ok {
		return q, nil
	}
	q, err := a.repo.Content().GetQuestionByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	a.questionCache[id] = q
	return q, nil
}

// resolveNames decorates participant entries with display names from the
// directory. Name resolution is cosmetic; directory failures leave IDs bare.
func (a *aggregation) resolveNames(ctx context.Context, logger *slog.Logger) {
	if len(a.participants) == 0 {
		return
	}

	ids := make([]string, 0, len(a.participants))
	for _, p := range a.participants {
		ids = append(ids, p.ParticipantID)
	}

	users, err := a.repo.Directory().GetByIDs(ctx, ids)
	if err != nil {
		logger.Warn("Failed to resolve participant names", "error", err)
		return
	}

	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.FullName
	}

	for _, p := range a.participants {
		p.DisplayName = names[p.ParticipantID]
	}
	for _, q := range a.questions {
		for _, bucket := range q.Buckets {
			for j := range bucket.Participants {
				bucket.Participants[j].DisplayName = names[bucket.Participants[j].ParticipantID]
			}
		}
	}
}

// tallyKey normalizes an answer value into its tally bucket key. String
// values are trimmed but not case-folded, so "Red" and "red" are distinct
// buckets. Null or blank values are skipped: visible per participant but
// excluded from tallies. Non-string values key on their compact JSON form.
func tallyKey(raw datatypes.JSON) (key string, skipped bool) {
	if len(raw) == 0 {
		return "", true
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		trimmed := strings.TrimSpace(string(raw))
		return trimmed, trimmed == ""
	}

	switch val := v.(type) {
	case nil:
		return "", true
	case string:
		trimmed := strings.TrimSpace(val)
		return trimmed, trimmed == ""
	default:
		compact, err := json.Marshal(v)
		if err != nil {
			return "", true
		}
		return string(compact), false
	}
}
