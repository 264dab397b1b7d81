package models

import (
	"time"

	"gorm.io/datatypes"
)

type SessionStatus string

const (
	SessionWaiting    SessionStatus = "waiting"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
)

// CursorUnset is the cursor value before the first Advance.
const CursorUnset = -1

type Session struct {
	ID       uint          `json:"id" gorm:"primaryKey"`
	QuizID   uint          `json:"quiz_id" gorm:"not null;index"`
	HostID   string        `json:"host_id" gorm:"not null;size:255;index"`
	// The partial unique index is the arbiter for code allocation: two
	// concurrent creates drawing the same candidate cannot both keep it,
	// while completed sessions release their codes for reuse.
	JoinCode string        `json:"join_code" gorm:"not null;size:6;index:idx_sessions_live_join_code,unique,where:status <> 'completed'"`
	Status   SessionStatus `json:"status" gorm:"default:waiting;index" validate:"omitempty,oneof=waiting in_progress completed"`

	// CurrentIndex is the position of the item currently being presented
	// within ContentOrder. CursorUnset until the first Advance.
	CurrentIndex int `json:"current_index" gorm:"not null;default:-1"`

	// ContentOrder is the frozen []ContentRef sequence stamped at start so
	// later quiz edits do not alter an in-flight session.
	ContentOrder datatypes.JSON `json:"content_order" gorm:"type:jsonb"`

	StartedAt *time.Time `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Relations
	Quiz         Quiz                 `json:"quiz,omitempty" gorm:"foreignKey:QuizID"`
	Participants []SessionParticipant `json:"participants,omitempty" gorm:"foreignKey:SessionID"`

	// Computed fields (not stored)
	ParticipantCount int `json:"participant_count" gorm:"-"`
}

// SessionParticipant is one participant's membership in a session. The
// composite unique index makes duplicate joins a storage-level conflict
// rather than a read-then-append race.
type SessionParticipant struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	SessionID     uint      `json:"session_id" gorm:"not null;uniqueIndex:idx_session_participant"`
	ParticipantID string    `json:"participant_id" gorm:"not null;size:255;uniqueIndex:idx_session_participant"`
	JoinedAt      time.Time `json:"joined_at" gorm:"autoCreateTime"`
}

func (Session) TableName() string {
	return "sessions"
}

func (SessionParticipant) TableName() string {
	return "session_participants"
}
