package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/quizlive/session-service/internal/cache"
	"github.com/quizlive/session-service/internal/events"
	"github.com/quizlive/session-service/internal/models"
	"github.com/quizlive/session-service/internal/repositories"
	"github.com/quizlive/session-service/internal/utils"
	"github.com/quizlive/session-service/internal/validator"
)

// maxCodeAttempts bounds the join code retry loop. With a 900k code space
// this only trips when nearly every code is held by a live session.
const maxCodeAttempts = 100

// joinCodeCacheTTL keeps the code-to-session mapping around for a full day
// of hosting; End deletes the entry eagerly.
const joinCodeCacheTTL = 24 * time.Hour

// SessionService owns the session lifecycle: creation with a unique join
// code, participant joining while waiting, the start transition that freezes
// the content order, and the end transition.
type SessionService interface {
	Create(ctx context.Context, req *CreateSessionRequest) (*CreateSessionResponse, error)
	Join(ctx context.Context, req *JoinSessionRequest) (*JoinSessionResponse, error)
	Start(ctx context.Context, sessionID uint, joinCode string) (*models.Session, error)
	End(ctx context.Context, sessionID uint, joinCode string) (*models.Session, error)
	GetByID(ctx context.Context, sessionID uint) (*models.Session, error)
	GetState(ctx context.Context, sessionID uint) (*SessionStateResponse, error)
	ListByHost(ctx context.Context, hostID string, filters repositories.SessionFilters) ([]*models.Session, int64, error)
}

// ===== REQUEST/RESPONSE TYPES =====

type CreateSessionRequest struct {
	QuizID uint   `json:"quiz_id" validate:"required"`
	HostID string `json:"host_id" validate:"required"`
}

type CreateSessionResponse struct {
	Session *models.Session `json:"session"`
	JoinURL string          `json:"join_url"`

	// JoinArtifact is a PNG rendering of JoinURL for projecting to a room.
	// Empty when no artifact generator is configured.
	JoinArtifact []byte `json:"join_artifact,omitempty"`
}

type JoinSessionRequest struct {
	JoinCode      string `json:"join_code" validate:"required,join_code"`
	ParticipantID string `json:"participant_id" validate:"required"`
}

type JoinSessionResponse struct {
	Session          *models.Session `json:"session"`
	Participant      *models.User    `json:"participant"`
	ParticipantCount int             `json:"participant_count"`
}

type SessionStateResponse struct {
	Session          *models.Session     `json:"session"`
	Items            []models.ContentRef `json:"items,omitempty"`
	CurrentItem      *AdvanceResponse    `json:"current_item,omitempty"`
	ParticipantCount int                 `json:"participant_count"`
	AnswerCount      int64               `json:"answer_count"`
}

// JoinArtifactGenerator renders a join URL into an image. Kept as a function
// type so tests can stub it and deployments can disable it.
type JoinArtifactGenerator func(url string) ([]byte, error)

type sessionService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	validator *validator.Validator
	logger    *slog.Logger

	joinBaseURL string
	artifact    JoinArtifactGenerator

	// generateCode draws join code candidates; a field so tests can force
	// collisions deterministically.
	generateCode func() string

	broadcaster
}

func NewSessionService(
	repo repositories.Repository,
	publisher events.EventPublisher,
	cacheService cache.CacheService,
	v *validator.Validator,
	logger *slog.Logger,
	joinBaseURL string,
	artifact JoinArtifactGenerator,
) SessionService {
	return &sessionService{
		repo:         repo,
		cache:        cacheService,
		validator:    v,
		logger:       logger,
		joinBaseURL:  strings.TrimRight(joinBaseURL, "/"),
		artifact:     artifact,
		generateCode: utils.GenerateCandidateCode,
		broadcaster:  broadcaster{publisher: publisher, logger: logger},
	}
}

// ===== LIFECYCLE OPERATIONS =====

func (s *sessionService) Create(ctx context.Context, req *CreateSessionRequest) (*CreateSessionResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.repo.Content().GetQuizByID(ctx, req.QuizID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	exists, err := s.repo.Directory().ExistsByID(ctx, req.HostID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve host: %w", err)
	}
	if !exists {
		return nil, ErrParticipantNotFound
	}

	session := &models.Session{
		QuizID:       req.QuizID,
		HostID:       req.HostID,
		Status:       models.SessionWaiting,
		CurrentIndex: models.CursorUnset,
	}

	if err := s.createWithUniqueCode(ctx, session); err != nil {
		return nil, err
	}

	joinURL := fmt.Sprintf("%s/join/%s", s.joinBaseURL, session.JoinCode)

	resp := &CreateSessionResponse{
		Session: session,
		JoinURL: joinURL,
	}

	// The artifact is presentational, so rendering failures do not fail
	// session creation.
	if s.artifact != nil {
		png, err := s.artifact(joinURL)
		if err != nil {
			s.logger.Warn("Failed to render join artifact",
				"session_id", session.ID, "error", err)
		} else {
			resp.JoinArtifact = png
		}
	}

	s.cacheJoinCode(ctx, session)

	s.logger.Info("Session created",
		"session_id", session.ID,
		"quiz_id", session.QuizID,
		"host_id", session.HostID,
		"join_code", session.JoinCode)

	s.publish(ctx, events.EventSessionCreated, session.ID, events.SessionCreatedEvent{
		SessionID: session.ID,
		QuizID:    session.QuizID,
		HostID:    session.HostID,
		JoinCode:  session.JoinCode,
		JoinURL:   joinURL,
		CreatedAt: session.CreatedAt,
	})

	return resp, nil
}

func (s *sessionService) Join(ctx context.Context, req *JoinSessionRequest) (*JoinSessionResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	session, err := s.resolveByCode(ctx, req.JoinCode)
	if err != nil {
		return nil, err
	}

	if session.Status != models.SessionWaiting {
		return nil, NewInvalidStateError(session.ID, session.Status, "join")
	}

	participant, err := s.repo.Directory().GetByID(ctx, req.ParticipantID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to resolve participant: %w", err)
	}

	added, err := s.repo.Session().AddParticipant(ctx, session.ID, req.ParticipantID)
	if err != nil {
		return nil, fmt.Errorf("failed to add participant: %w", err)
	}
	if !added {
		return nil, ErrAlreadyJoined
	}

	count, err := s.repo.Session().CountParticipants(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}
	session.ParticipantCount = int(count)

	s.logger.Info("Participant joined session",
		"session_id", session.ID,
		"participant_id", req.ParticipantID,
		"participant_count", count)

	s.publish(ctx, events.EventSessionJoined, session.ID, events.SessionJoinedEvent{
		SessionID:        session.ID,
		ParticipantID:    participant.ID,
		DisplayName:      participant.FullName,
		ContactEmail:     participant.Email,
		ParticipantCount: int(count),
		JoinedAt:         time.Now().UTC(),
	})

	return &JoinSessionResponse{
		Session:          session,
		Participant:      participant,
		ParticipantCount: int(count),
	}, nil
}

func (s *sessionService) Start(ctx context.Context, sessionID uint, joinCode string) (*models.Session, error) {
	session, err := s.getByIDAndCode(ctx, sessionID, joinCode)
	if err != nil {
		return nil, err
	}

	if session.Status != models.SessionWaiting {
		return nil, NewInvalidStateError(session.ID, session.Status, "start")
	}

	quiz, err := s.repo.Content().GetQuizByID(ctx, session.QuizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	questions, err := s.repo.Content().GetQuestionsByQuiz(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	slides, err := s.repo.Content().GetSlidesByQuiz(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load slides: %w", err)
	}

	sequence := BuildSequence(quiz, questions, slides)
	encoded, err := EncodeSequence(sequence)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	moved, err := s.repo.Session().UpdateStatusFrom(ctx, session.ID,
		models.SessionWaiting, models.SessionInProgress,
		map[string]interface{}{
			"content_order": encoded,
			"started_at":    now,
			"current_index": models.CursorUnset,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	if !moved {
		current, err := s.repo.Session().GetByID(ctx, session.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload session: %w", err)
		}
		return nil, NewInvalidStateError(current.ID, current.Status, "start")
	}

	s.logger.Info("Session started",
		"session_id", session.ID,
		"quiz_id", session.QuizID,
		"item_count", len(sequence))

	s.publish(ctx, events.EventSessionStarted, session.ID, events.SessionStartedEvent{
		SessionID: session.ID,
		QuizID:    session.QuizID,
		Items:     sequence,
		StartedAt: now,
	})

	return s.repo.Session().GetByID(ctx, session.ID)
}

// End completes a session. Ending an already completed session is a no-op
// that returns the session unchanged, so hosts can retry safely.
func (s *sessionService) End(ctx context.Context, sessionID uint, joinCode string) (*models.Session, error) {
	session, err := s.getByIDAndCode(ctx, sessionID, joinCode)
	if err != nil {
		return nil, err
	}

	switch session.Status {
	case models.SessionCompleted:
		return session, nil
	case models.SessionWaiting:
		return nil, NewInvalidStateError(session.ID, session.Status, "end")
	}

	now := time.Now().UTC()
	moved, err := s.repo.Session().UpdateStatusFrom(ctx, session.ID,
		models.SessionInProgress, models.SessionCompleted,
		map[string]interface{}{"ended_at": now})
	if err != nil {
		return nil, fmt.Errorf("failed to end session: %w", err)
	}
	if !moved {
		current, err := s.repo.Session().GetByID(ctx, session.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload session: %w", err)
		}
		if current.Status == models.SessionCompleted {
			// A concurrent End won; idempotent from the caller's view.
			return current, nil
		}
		return nil, NewInvalidStateError(current.ID, current.Status, "end")
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, cache.JoinCodeKey(session.JoinCode)); err != nil {
			s.logger.Warn("Failed to evict join code from cache",
				"session_id", session.ID, "error", err)
		}
	}

	s.logger.Info("Session ended", "session_id", session.ID)

	s.publish(ctx, events.EventSessionEnded, session.ID, events.SessionEndedEvent{
		SessionID: session.ID,
		EndedAt:   now,
	})

	return s.repo.Session().GetByID(ctx, session.ID)
}

// ===== READ OPERATIONS =====

func (s *sessionService) GetByID(ctx context.Context, sessionID uint) (*models.Session, error) {
	session, err := s.repo.Session().GetByID(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	count, err := s.repo.Session().CountParticipants(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}
	session.ParticipantCount = int(count)

	return session, nil
}

func (s *sessionService) GetState(ctx context.Context, sessionID uint) (*SessionStateResponse, error) {
	session, err := s.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	resp := &SessionStateResponse{
		Session:          session,
		ParticipantCount: session.ParticipantCount,
	}

	answers, err := s.repo.Answer().CountBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to count answers: %w", err)
	}
	resp.AnswerCount = answers

	if len(session.ContentOrder) == 0 {
		return resp, nil
	}

	sequence, err := DecodeSequence(session.ContentOrder)
	if err != nil {
		return nil, err
	}
	resp.Items = sequence

	if session.CurrentIndex >= 0 && session.CurrentIndex < len(sequence) {
		seq := &sequencerService{repo: s.repo, logger: s.logger}
		current, err := seq.resolveItem(ctx, session.ID, session.CurrentIndex, sequence)
		if err != nil {
			return nil, err
		}
		resp.CurrentItem = current
	}

	return resp, nil
}

func (s *sessionService) ListByHost(ctx context.Context, hostID string, filters repositories.SessionFilters) ([]*models.Session, int64, error) {
	if hostID == "" {
		return nil, 0, NewValidationError("host_id", "is required", hostID)
	}

	sessions, total, err := s.repo.Session().GetByHost(ctx, hostID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, total, nil
}

// ===== HELPERS =====

// createWithUniqueCode draws codes until the insert clears the live-code
// uniqueness constraint. CodeInUse is only a cheap pre-check; the constraint
// is the arbiter, so two concurrent creates drawing the same candidate
// cannot both keep it. Codes held by completed sessions are reusable
// immediately.
func (s *sessionService) createWithUniqueCode(ctx context.Context, session *models.Session) error {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := s.generateCode()
		inUse, err := s.repo.Session().CodeInUse(ctx, code)
		if err != nil {
			return fmt.Errorf("failed to check join code: %w", err)
		}
		if inUse {
			continue
		}

		session.JoinCode = code
		err = s.repo.Session().Create(ctx, session)
		if errors.Is(err, repositories.ErrDuplicateJoinCode) {
			// A concurrent create took the code between the check and the
			// insert. Draw again.
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		return nil
	}
	return ErrCodeSpaceExhausted
}

func (s *sessionService) getByIDAndCode(ctx context.Context, sessionID uint, joinCode string) (*models.Session, error) {
	session, err := s.repo.Session().GetByIDAndCode(ctx, sessionID, joinCode)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// resolveByCode looks up a live session by join code, trying the cache
// before the database. Cache contents are advisory; the database row is
// always re-read so a stale entry cannot revive an ended session.
func (s *sessionService) resolveByCode(ctx context.Context, joinCode string) (*models.Session, error) {
	if s.cache != nil {
		var cachedID uint
		if err := s.cache.Get(ctx, cache.JoinCodeKey(joinCode), &cachedID); err == nil {
			session, err := s.repo.Session().GetByID(ctx, cachedID)
			if err == nil && session.JoinCode == joinCode && session.Status != models.SessionCompleted {
				return session, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Join code cache lookup failed", "error", err)
		}
	}

	session, err := s.repo.Session().GetByCode(ctx, joinCode)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to resolve join code: %w", err)
	}

	s.cacheJoinCode(ctx, session)
	return session, nil
}

func (s *sessionService) cacheJoinCode(ctx context.Context, session *models.Session) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, cache.JoinCodeKey(session.JoinCode), session.ID, joinCodeCacheTTL); err != nil {
		s.logger.Warn("Failed to cache join code",
			"session_id", session.ID, "error", err)
	}
}
