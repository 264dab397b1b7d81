package services

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/quizlive/session-service/internal/models"
	"github.com/quizlive/session-service/internal/repositories"
	"github.com/quizlive/session-service/internal/validator"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testValidator() *validator.Validator {
	return validator.New()
}

// memRepository is an in-memory Repository with the same conditional-write
// semantics as the Postgres implementation, so race-sensitive paths (cursor
// CAS, participant uniqueness, answer upsert) behave identically in tests.
type memRepository struct {
	mu sync.Mutex

	nextSessionID uint
	sessions      map[uint]*models.Session
	participants  map[uint][]models.SessionParticipant

	nextAnswerID uint
	answers      map[uint][]*models.SessionAnswer

	quizzes   map[uint]*models.Quiz
	questions map[uint]*models.Question
	slides    map[uint]*models.Slide

	users map[string]*models.User
}

func newMemRepository() *memRepository {
	return &memRepository{
		nextSessionID: 1,
		sessions:      make(map[uint]*models.Session),
		participants:  make(map[uint][]models.SessionParticipant),
		nextAnswerID:  1,
		answers:       make(map[uint][]*models.SessionAnswer),
		quizzes:       make(map[uint]*models.Quiz),
		questions:     make(map[uint]*models.Question),
		slides:        make(map[uint]*models.Slide),
		users:         make(map[string]*models.User),
	}
}

func (r *memRepository) Session() repositories.SessionRepository   { return (*memSessionRepo)(r) }
func (r *memRepository) Answer() repositories.AnswerRepository     { return (*memAnswerRepo)(r) }
func (r *memRepository) Content() repositories.ContentRepository   { return (*memContentRepo)(r) }
func (r *memRepository) Directory() repositories.ParticipantDirectory {
	return (*memDirectory)(r)
}

// Seed helpers

func (r *memRepository) addQuiz(quiz *models.Quiz) {
	r.quizzes[quiz.ID] = quiz
}

func (r *memRepository) addQuestion(q *models.Question) {
	r.questions[q.ID] = q
}

func (r *memRepository) addSlide(s *models.Slide) {
	r.slides[s.ID] = s
}

func (r *memRepository) addUser(u *models.User) {
	r.users[u.ID] = u
}

func copySession(s *models.Session) *models.Session {
	out := *s
	return &out
}

// ===== SESSION REPO =====

type memSessionRepo memRepository

func (r *memSessionRepo) Create(ctx context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.sessions {
		if existing.JoinCode == session.JoinCode && existing.Status != models.SessionCompleted {
			return repositories.ErrDuplicateJoinCode
		}
	}
	session.ID = r.nextSessionID
	r.nextSessionID++
	session.CreatedAt = time.Now().UTC()
	session.UpdatedAt = session.CreatedAt
	r.sessions[session.ID] = copySession(session)
	return nil
}

func (r *memSessionRepo) GetByID(ctx context.Context, id uint) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return copySession(s), nil
}

func (r *memSessionRepo) GetByIDAndCode(ctx context.Context, id uint, joinCode string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.JoinCode != joinCode {
		return nil, gorm.ErrRecordNotFound
	}
	return copySession(s), nil
}

func (r *memSessionRepo) GetByCode(ctx context.Context, joinCode string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.JoinCode == joinCode && s.Status != models.SessionCompleted {
			return copySession(s), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memSessionRepo) CodeInUse(ctx context.Context, joinCode string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.JoinCode == joinCode && s.Status != models.SessionCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (r *memSessionRepo) Update(ctx context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	session.UpdatedAt = time.Now().UTC()
	r.sessions[session.ID] = copySession(session)
	return nil
}

func (r *memSessionRepo) UpdateStatusFrom(ctx context.Context, id uint, expected, next models.SessionStatus, fields map[string]interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Status != expected {
		return false, nil
	}
	s.Status = next
	for key, value := range fields {
		switch key {
		case "content_order":
			s.ContentOrder = value.(datatypes.JSON)
		case "started_at":
			t := value.(time.Time)
			s.StartedAt = &t
		case "ended_at":
			t := value.(time.Time)
			s.EndedAt = &t
		case "current_index":
			s.CurrentIndex = value.(int)
		}
	}
	s.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *memSessionRepo) AdvanceCursor(ctx context.Context, id uint, fromIndex, toIndex int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Status != models.SessionInProgress || s.CurrentIndex != fromIndex {
		return false, nil
	}
	s.CurrentIndex = toIndex
	s.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *memSessionRepo) AddParticipant(ctx context.Context, sessionID uint, participantID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants[sessionID] {
		if p.ParticipantID == participantID {
			return false, nil
		}
	}
	r.participants[sessionID] = append(r.participants[sessionID], models.SessionParticipant{
		SessionID:     sessionID,
		ParticipantID: participantID,
		JoinedAt:      time.Now().UTC(),
	})
	return true, nil
}

func (r *memSessionRepo) ListParticipants(ctx context.Context, sessionID uint) ([]models.SessionParticipant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.SessionParticipant, len(r.participants[sessionID]))
	copy(out, r.participants[sessionID])
	return out, nil
}

func (r *memSessionRepo) HasParticipant(ctx context.Context, sessionID uint, participantID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants[sessionID] {
		if p.ParticipantID == participantID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memSessionRepo) CountParticipants(ctx context.Context, sessionID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.participants[sessionID])), nil
}

func (r *memSessionRepo) List(ctx context.Context, filters repositories.SessionFilters) ([]*models.Session, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Session
	for _, s := range r.sessions {
		if filters.Status != nil && s.Status != *filters.Status {
			continue
		}
		if filters.HostID != nil && s.HostID != *filters.HostID {
			continue
		}
		out = append(out, copySession(s))
	}
	return out, int64(len(out)), nil
}

func (r *memSessionRepo) GetByHost(ctx context.Context, hostID string, filters repositories.SessionFilters) ([]*models.Session, int64, error) {
	filters.HostID = &hostID
	return r.List(ctx, filters)
}

// ===== ANSWER REPO =====

type memAnswerRepo memRepository

func (r *memAnswerRepo) Insert(ctx context.Context, answer *models.SessionAnswer) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.answers[answer.SessionID] {
		if a.QuestionID == answer.QuestionID && a.ParticipantID == answer.ParticipantID {
			return false, nil
		}
	}
	answer.ID = r.nextAnswerID
	r.nextAnswerID++
	answer.CreatedAt = time.Now().UTC()
	answer.UpdatedAt = answer.CreatedAt
	stored := *answer
	r.answers[answer.SessionID] = append(r.answers[answer.SessionID], &stored)
	return true, nil
}

func (r *memAnswerRepo) UpdateValue(ctx context.Context, sessionID, questionID uint, participantID string, value []byte, timeTaken float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.answers[sessionID] {
		if a.QuestionID == questionID && a.ParticipantID == participantID {
			a.Value = append([]byte(nil), value...)
			a.TimeTaken = timeTaken
			a.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memAnswerRepo) GetByTriple(ctx context.Context, sessionID, questionID uint, participantID string) (*models.SessionAnswer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.answers[sessionID] {
		if a.QuestionID == questionID && a.ParticipantID == participantID {
			out := *a
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memAnswerRepo) GetBySession(ctx context.Context, sessionID uint) ([]*models.SessionAnswer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.SessionAnswer, 0, len(r.answers[sessionID]))
	for _, a := range r.answers[sessionID] {
		copied := *a
		out = append(out, &copied)
	}
	return out, nil
}

func (r *memAnswerRepo) GetBySessionAndQuestion(ctx context.Context, sessionID, questionID uint) ([]*models.SessionAnswer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.SessionAnswer
	for _, a := range r.answers[sessionID] {
		if a.QuestionID == questionID {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memAnswerRepo) CountBySession(ctx context.Context, sessionID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.answers[sessionID])), nil
}

func (r *memAnswerRepo) CountBySessionAndQuestion(ctx context.Context, sessionID, questionID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, a := range r.answers[sessionID] {
		if a.QuestionID == questionID {
			count++
		}
	}
	return count, nil
}

// ===== CONTENT REPO =====

type memContentRepo memRepository

func (r *memContentRepo) GetQuizByID(ctx context.Context, id uint) (*models.Quiz, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quizzes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return q, nil
}

func (r *memContentRepo) GetQuestionsByQuiz(ctx context.Context, quizID uint) ([]*models.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Question
	for _, id := range sortedKeys(r.questions) {
		if q := r.questions[id]; q.QuizID == quizID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *memContentRepo) GetSlidesByQuiz(ctx context.Context, quizID uint) ([]*models.Slide, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Slide
	for _, id := range sortedKeys(r.slides) {
		if s := r.slides[id]; s.QuizID == quizID {
			out = append(out, s)
		}
	}
	return out, nil
}

func sortedKeys[V any](m map[uint]V) []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (r *memContentRepo) GetQuestionByID(ctx context.Context, id uint) (*models.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.questions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return q, nil
}

func (r *memContentRepo) GetSlideByID(ctx context.Context, id uint) (*models.Slide, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slides[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *memContentRepo) GetQuestionsByIDs(ctx context.Context, ids []uint) ([]*models.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Question
	for _, id := range ids {
		if q, ok := r.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *memContentRepo) GetSlidesByIDs(ctx context.Context, ids []uint) ([]*models.Slide, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Slide
	for _, id := range ids {
		if s, ok := r.slides[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// ===== DIRECTORY =====

type memDirectory memRepository

func (r *memDirectory) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *memDirectory) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memDirectory) ExistsByID(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[id]
	return ok, nil
}
