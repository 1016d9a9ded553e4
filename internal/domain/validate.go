package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(questionAnswerInOptions, Question{})
	return v
}

// questionAnswerInOptions enforces correctAnswer ∈ options.
func questionAnswerInOptions(sl validator.StructLevel) {
	q, ok := sl.Current().Interface().(Question)
	if !ok || q.CorrectAnswer == "" {
		return
	}
	if !q.HasOption(q.CorrectAnswer) {
		sl.ReportError(q.CorrectAnswer, "correctAnswer", "CorrectAnswer", "inoptions", "")
	}
}

// ValidateQuestion checks a single question: text, at least two non-empty options,
// and a correct answer equal to one of them.
func ValidateQuestion(q Question) error {
	return translate(validate.Struct(q))
}

// ValidateQuiz checks quiz metadata and every question.
func ValidateQuiz(q Quiz) error {
	return translate(validate.Struct(q))
}

// ValidateQuestionPatch parses an admin-authored question document and validates it.
func ValidateQuestionPatch(raw []byte) (Question, error) {
	var q Question
	if err := json.Unmarshal(raw, &q); err != nil {
		return Question{}, NewValidationError("", "invalid JSON: "+err.Error())
	}
	if err := ValidateQuestion(q); err != nil {
		return Question{}, err
	}
	return normalizeQuestion(q), nil
}

// ParseQuizDraft parses a quiz document pasted by an admin and validates it.
func ParseQuizDraft(raw []byte) (Quiz, error) {
	var q Quiz
	if err := json.Unmarshal(raw, &q); err != nil {
		return Quiz{}, NewValidationError("", "invalid JSON: "+err.Error())
	}
	if err := ValidateQuiz(q); err != nil {
		return Quiz{}, err
	}
	for i := range q.Questions {
		q.Questions[i] = normalizeQuestion(q.Questions[i])
	}
	return q, nil
}

// NormalizeQuestions applies defaults (points=1) to a validated question list.
func NormalizeQuestions(questions []Question) []Question {
	out := make([]Question, len(questions))
	for i, q := range questions {
		out[i] = normalizeQuestion(q)
	}
	return out
}

func normalizeQuestion(q Question) Question {
	if q.Points == 0 {
		q.Points = 1
	}
	return q
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return NewValidationError("", err.Error())
	}
	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	return NewValidationError(field, reason(fe))
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("needs at least %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "inoptions":
		return "must match one of the options"
	default:
		return "failed " + fe.Tag() + " check"
	}
}
