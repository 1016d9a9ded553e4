package app

import (
	"context"

	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/session"
)

// AttemptRepository abstracts how in-flight attempts are stored (in-memory, Redis, etc).
type AttemptRepository interface {
	Save(ctx context.Context, attempt session.Attempt) error
	// Update stores attempt only while the stored copy still has revision expected,
	// and returns domain.ErrAttemptConflict otherwise.
	Update(ctx context.Context, attempt session.Attempt, expected int64) error
	Get(ctx context.Context, attemptID string) (session.Attempt, error)
	Delete(ctx context.Context, attemptID string) error
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	// Invalidate drops any cached copy after the quiz was edited.
	Invalidate(ctx context.Context, quizID string) error
}

// QuizStore is the system of record for quizzes.
type QuizStore interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	// ListQuizzes returns every quiz ordered by creation time, then ID.
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
	DeleteQuiz(ctx context.Context, quizID string) error
}

// ScoreStore persists finished attempts.
type ScoreStore interface {
	session.ScoreRepository
	// ListScores returns a user's records, newest first.
	ListScores(ctx context.Context, userID string) ([]domain.ScoreRecord, error)
	DeleteScoresForQuiz(ctx context.Context, quizID string) error
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user domain.User) error
	GetUser(ctx context.Context, userID string) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}
