package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ContentType string

const (
	ContentQuestion ContentType = "question"
	ContentSlide    ContentType = "slide"
)

// ContentRef identifies one item in a session's traversal order.
type ContentRef struct {
	ID   uint        `json:"id"`
	Type ContentType `json:"type"`
}

type Quiz struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	CreatedBy   string  `json:"created_by" gorm:"not null;size:255;index"`

	// ItemOrder is an optional explicit []ContentRef merge order over the
	// quiz's questions and slides. When null, sessions traverse all
	// questions first, then all slides.
	ItemOrder datatypes.JSON `json:"item_order" gorm:"type:jsonb"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:QuizID"`
	Slides    []Slide    `json:"slides,omitempty" gorm:"foreignKey:QuizID"`
}

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	OpenEnded      QuestionType = "open_ended"
	Poll           QuestionType = "poll"
)

type Question struct {
	ID     uint         `json:"id" gorm:"primaryKey"`
	QuizID uint         `json:"quiz_id" gorm:"not null;index"`
	Type   QuestionType `json:"type" gorm:"not null;size:30" validate:"omitempty,content_question_type"`
	Text   string       `json:"text" gorm:"not null;type:text" validate:"required,min=1"`

	// Options for choice questions, opaque to the session core.
	Options datatypes.JSON `json:"options" gorm:"type:jsonb"`

	// ImageRef is an opaque reference resolved to a displayable URL by an
	// external collaborator; the core passes it through unchanged.
	ImageRef *string `json:"image_ref" gorm:"size:500"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Slide struct {
	ID     uint    `json:"id" gorm:"primaryKey"`
	QuizID uint    `json:"quiz_id" gorm:"not null;index"`
	Title  string  `json:"title" gorm:"size:200"`
	Body   *string `json:"body" gorm:"type:text"`

	// Position orders slides within the quiz.
	Position int `json:"position" gorm:"not null;default:0"`

	ImageRef *string `json:"image_ref" gorm:"size:500"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

func (Question) TableName() string {
	return "questions"
}

func (Slide) TableName() string {
	return "slides"
}
