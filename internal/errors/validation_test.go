package errors

import (
	"testing"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("join_code", "must be a 6-digit numeric code", "12ab")

	if err.Field != "join_code" {
		t.Errorf("Expected field to be 'join_code', got '%s'", err.Field)
	}

	if err.Message != "must be a 6-digit numeric code" {
		t.Errorf("Expected message to be 'must be a 6-digit numeric code', got '%s'", err.Message)
	}

	if err.Value != "12ab" {
		t.Errorf("Expected value to be '12ab', got '%v'", err.Value)
	}

	expected := "validation error on field 'join_code': must be a 6-digit numeric code"
	if err.Error() != expected {
		t.Errorf("Expected error message to be '%s', got '%s'", expected, err.Error())
	}
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	if errs.Error() != "validation failed" {
		t.Errorf("Expected 'validation failed' for empty errors, got '%s'", errs.Error())
	}

	errs = append(errs, *NewValidationError("host_id", "is required", nil))
	expected := "validation failed: host_id is required"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for single error, got '%s'", expected, errs.Error())
	}

	errs = append(errs, *NewValidationError("quiz_id", "is required", nil))
	expected = "validation failed: 2 field errors"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for multiple errors, got '%s'", expected, errs.Error())
	}
}

func TestNewValidationErrorWithRule(t *testing.T) {
	err := NewValidationErrorWithRule("participant_id", "is required", "required", "")

	if err.Rule != "required" {
		t.Errorf("Expected rule to be 'required', got '%s'", err.Rule)
	}

	if err.Field != "participant_id" {
		t.Errorf("Expected field to be 'participant_id', got '%s'", err.Field)
	}
}
