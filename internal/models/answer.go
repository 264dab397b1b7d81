package models

import (
	"time"

	"gorm.io/datatypes"
)

// SessionAnswer is one participant's stored response to one question within
// one session. The composite unique index enforces the upsert invariant:
// at most one record per (session, question, participant).
type SessionAnswer struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	SessionID     uint   `json:"session_id" gorm:"not null;uniqueIndex:idx_answer_triple;index"`
	QuestionID    uint   `json:"question_id" gorm:"not null;uniqueIndex:idx_answer_triple"`
	ParticipantID string `json:"participant_id" gorm:"not null;size:255;uniqueIndex:idx_answer_triple"`

	// Value is opaque: scalar, array, or object depending on question type.
	Value datatypes.JSON `json:"value" gorm:"type:jsonb"`

	// TimeTaken is seconds spent before submitting.
	TimeTaken float64 `json:"time_taken" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SessionAnswer) TableName() string {
	return "session_answers"
}
