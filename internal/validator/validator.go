package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/quizlive/session-service/internal/errors"
	"github.com/quizlive/session-service/internal/models"
	"github.com/quizlive/session-service/internal/utils"
)

// Validator is the central request/struct validator.
type Validator struct {
	structValidator *validator.Validate
}

// New creates a new validator instance with all custom rules registered.
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
	}
}

// Validate validates struct tags and converts failures to the shared
// ValidationErrors type.
func (v *Validator) Validate(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if ve := apperrors.ToValidationErrors(err); len(ve) > 0 {
			return ve
		}
		return err
	}
	return nil
}

// ValidateStruct validates struct tags only, returning the raw validator error.
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("session_status", validateSessionStatus)
	validate.RegisterValidation("content_type", validateContentType)
	validate.RegisterValidation("content_question_type", validateQuestionType)
	validate.RegisterValidation("join_code", validateJoinCode)

	// Use json tag names for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateSessionStatus(fl validator.FieldLevel) bool {
	validStatuses := []models.SessionStatus{
		models.SessionWaiting,
		models.SessionInProgress,
		models.SessionCompleted,
	}

	value := fl.Field().String()
	for _, validStatus := range validStatuses {
		if string(validStatus) == value {
			return true
		}
	}
	return false
}

func validateContentType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == string(models.ContentQuestion) || value == string(models.ContentSlide)
}

func validateQuestionType(fl validator.FieldLevel) bool {
	validTypes := []models.QuestionType{
		models.MultipleChoice,
		models.TrueFalse,
		models.OpenEnded,
		models.Poll,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func validateJoinCode(fl validator.FieldLevel) bool {
	return utils.IsValidJoinCode(fl.Field().String())
}
