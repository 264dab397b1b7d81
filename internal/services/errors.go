package services

import (
	"errors"
	"fmt"

	apperrors "github.com/quizlive/session-service/internal/errors"
	"github.com/quizlive/session-service/internal/models"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrConflict         = errors.New("resource conflict")

	// Session specific errors
	ErrSessionNotFound = errors.New("session not found")
	ErrQuizNotFound    = errors.New("quiz not found")
	ErrAlreadyJoined   = errors.New("participant already joined session")

	// Sequencer specific errors
	ErrSequenceExhausted = errors.New("no remaining content in session")
	ErrSequenceNotFrozen = errors.New("session has no frozen content sequence")

	// Answer specific errors
	ErrQuestionNotFound = errors.New("question not found")
	ErrSlideNotFound    = errors.New("slide not found")
	ErrNoAnswers        = errors.New("no answers recorded for question in session")

	// Directory errors
	ErrParticipantNotFound = errors.New("participant not found")

	// Join code generation
	ErrCodeSpaceExhausted = errors.New("could not allocate a unique join code")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// InvalidStateError reports an operation attempted against a session in the
// wrong lifecycle state. Current is included so the caller can decide
// whether to retry after a state change.
type InvalidStateError struct {
	SessionID uint                 `json:"session_id"`
	Current   models.SessionStatus `json:"current"`
	Operation string               `json:"operation"`
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid session state: cannot %s session %d in status %q",
		e.Operation, e.SessionID, e.Current)
}

func NewInvalidStateError(sessionID uint, current models.SessionStatus, operation string) *InvalidStateError {
	return &InvalidStateError{
		SessionID: sessionID,
		Current:   current,
		Operation: operation,
	}
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrSlideNotFound) ||
		errors.Is(err, ErrParticipantNotFound) ||
		errors.Is(err, ErrNoAnswers)
}

// IsInvalidState checks if error represents a wrong-lifecycle-state condition
func IsInvalidState(err error) bool {
	var ise *InvalidStateError
	return errors.As(err, &ise)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrAlreadyJoined)
}

// IsExhausted checks if error represents the end of a session's content
func IsExhausted(err error) bool {
	return errors.Is(err, ErrSequenceExhausted)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}
