package events

import (
	"time"

	"github.com/quizlive/session-service/internal/models"
)

// EventType names the broadcast events announced to connected clients.
type EventType string

const (
	// Session lifecycle events
	EventSessionCreated  EventType = "session.created"
	EventSessionJoined   EventType = "session.joined"
	EventSessionStarted  EventType = "session.started"
	EventSessionAdvanced EventType = "session.advanced"
	EventSessionEnded    EventType = "session.ended"

	// Answer events
	EventAnswerSubmitted EventType = "answer.submitted"
)

// BroadcastEvent is the envelope for all session broadcast events.
type BroadcastEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	SessionID uint                   `json:"session_id"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Event payloads

type SessionCreatedEvent struct {
	SessionID uint      `json:"session_id"`
	QuizID    uint      `json:"quiz_id"`
	HostID    string    `json:"host_id"`
	JoinCode  string    `json:"join_code"`
	JoinURL   string    `json:"join_url"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionJoinedEvent struct {
	SessionID        uint      `json:"session_id"`
	ParticipantID    string    `json:"participant_id"`
	DisplayName      string    `json:"display_name"`
	ContactEmail     string    `json:"contact_email"`
	ParticipantCount int       `json:"participant_count"`
	JoinedAt         time.Time `json:"joined_at"`
}

type SessionStartedEvent struct {
	SessionID uint                `json:"session_id"`
	QuizID    uint                `json:"quiz_id"`
	Items     []models.ContentRef `json:"items"`
	StartedAt time.Time           `json:"started_at"`
}

type SessionAdvancedEvent struct {
	SessionID uint               `json:"session_id"`
	Index     int                `json:"index"`
	ItemType  models.ContentType `json:"item_type"`
	Item      interface{}        `json:"item"`
	ImageRef  *string            `json:"image_ref,omitempty"`
}

type SessionEndedEvent struct {
	SessionID uint      `json:"session_id"`
	EndedAt   time.Time `json:"ended_at"`
}

type AnswerSubmittedEvent struct {
	SessionID     uint        `json:"session_id"`
	QuestionID    uint        `json:"question_id"`
	ParticipantID string      `json:"participant_id"`
	Value         interface{} `json:"value"`
	TimeTaken     float64     `json:"time_taken"`
	IsUpdate      bool        `json:"is_update"`
}
