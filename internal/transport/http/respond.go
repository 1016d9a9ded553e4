package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"quiz-session-service/internal/domain"
)

type errorPayload struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	payload := errorPayload{Message: err.Error()}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		payload.Field = verr.Field
	}
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		payload.Message = "internal error"
	}
	writeJSON(w, status, payload)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var submitErr *domain.SubmissionError
	switch {
	case errors.As(err, &submitErr):
		return http.StatusBadGateway
	case domain.IsValidation(err),
		errors.Is(err, domain.ErrOptionNotFound),
		errors.Is(err, domain.ErrEmptyQuestionSet):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrAttemptNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrNoNextQuiz):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUserExists),
		errors.Is(err, domain.ErrAttemptCompleted),
		errors.Is(err, domain.ErrAttemptInProgress),
		errors.Is(err, domain.ErrAnswerAlreadySelected),
		errors.Is(err, domain.ErrAttemptConflict),
		errors.Is(err, domain.ErrNoAnswerSelected):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON body into v; malformed input is a validation error.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.NewValidationError("body", "malformed JSON")
	}
	return nil
}
