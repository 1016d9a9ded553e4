package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a question ID is not part of the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a selected option is not offered by the current question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrEmptyQuestionSet is returned when an attempt would have no questions.
	ErrEmptyQuestionSet = errors.New("question set is empty")

	// ErrAttemptNotFound is returned for unknown or foreign attempts.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAttemptCompleted rejects answer/advance calls on a finished attempt.
	ErrAttemptCompleted = errors.New("attempt already completed")
	// ErrAttemptInProgress rejects retake/next/submit calls on an unfinished attempt.
	ErrAttemptInProgress = errors.New("attempt still in progress")
	// ErrAttemptConflict is returned when another request changed the attempt first.
	ErrAttemptConflict = errors.New("attempt was modified concurrently")
	// ErrAnswerAlreadySelected rejects a second answer for the same question.
	ErrAnswerAlreadySelected = errors.New("answer already selected for this question")
	// ErrNoAnswerSelected rejects advancing past an unanswered question.
	ErrNoAnswerSelected = errors.New("no answer selected for the current question")
	// ErrNoNextQuiz is returned when the current quiz is the last one (or unknown).
	ErrNoNextQuiz = errors.New("no next quiz")

	// ErrUserNotFound indicates the user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when registering a taken username.
	ErrUserExists = errors.New("username already exists")
	// ErrInvalidCredentials covers both unknown usernames and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized indicates a missing or invalid token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the caller lacks access to the resource.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError reports malformed quiz or question data.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// FetchError reports that a quiz could not be fetched; no attempt state is created.
type FetchError struct {
	QuizID string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch quiz %s: %v", e.QuizID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SubmissionError reports that a score could not be stored.
// The attempt it came from stays completed and can be submitted again.
type SubmissionError struct {
	QuizID string
	Err    error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit score for quiz %s: %v", e.QuizID, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }
