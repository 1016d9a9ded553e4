package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"quiz-session-service/internal/domain"
)

// CatalogService holds the admin authoring use cases.
type CatalogService struct {
	store   QuizStore
	quizzes QuizRepository
	scores  ScoreStore
	now     func() time.Time
}

func NewCatalogService(store QuizStore, quizzes QuizRepository, scores ScoreStore) *CatalogService {
	return &CatalogService{store: store, quizzes: quizzes, scores: scores, now: time.Now}
}

// SetClock is test-only for deterministic timestamps.
func (s *CatalogService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateQuiz validates a draft and stores it under a new ID.
func (s *CatalogService) CreateQuiz(ctx context.Context, admin domain.User, draft domain.Quiz) (domain.Quiz, error) {
	if !admin.IsAdmin() {
		return domain.Quiz{}, domain.ErrForbidden
	}
	if err := domain.ValidateQuiz(draft); err != nil {
		return domain.Quiz{}, err
	}

	quiz := draft
	quiz.ID = uuid.NewString()
	quiz.CreatedBy = admin.ID
	quiz.CreatedAt = s.now()
	quiz.Questions = withIDs(domain.NormalizeQuestions(draft.Questions))
	if quiz.AuthorizedUsers == nil {
		quiz.AuthorizedUsers = []string{}
	}

	if err := s.store.CreateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("create quiz: %w", err)
	}
	return quiz, nil
}

// ImportQuiz creates a quiz from a raw JSON document.
func (s *CatalogService) ImportQuiz(ctx context.Context, admin domain.User, raw []byte) (domain.Quiz, error) {
	if !admin.IsAdmin() {
		return domain.Quiz{}, domain.ErrForbidden
	}
	draft, err := domain.ParseQuizDraft(raw)
	if err != nil {
		return domain.Quiz{}, err
	}
	return s.CreateQuiz(ctx, admin, draft)
}

// AppendQuestions adds questions to the end of a quiz.
func (s *CatalogService) AppendQuestions(ctx context.Context, admin domain.User, quizID string, questions []domain.Question) (domain.Quiz, error) {
	if !admin.IsAdmin() {
		return domain.Quiz{}, domain.ErrForbidden
	}
	if len(questions) == 0 {
		return domain.Quiz{}, domain.NewValidationError("questions", "needs at least 1 entries")
	}
	for i, q := range questions {
		if err := domain.ValidateQuestion(q); err != nil {
			if ve, ok := err.(*domain.ValidationError); ok {
				ve.Field = fmt.Sprintf("questions[%d].%s", i, ve.Field)
			}
			return domain.Quiz{}, err
		}
	}
	return s.mutate(ctx, admin, quizID, func(quiz *domain.Quiz) error {
		quiz.Questions = append(quiz.Questions, withIDs(domain.NormalizeQuestions(questions))...)
		return nil
	})
}

// UpdateQuestion replaces one question with a validated raw JSON document.
func (s *CatalogService) UpdateQuestion(ctx context.Context, admin domain.User, quizID, questionID string, raw []byte) (domain.Quiz, error) {
	if !admin.IsAdmin() {
		return domain.Quiz{}, domain.ErrForbidden
	}
	patch, err := domain.ValidateQuestionPatch(raw)
	if err != nil {
		return domain.Quiz{}, err
	}
	return s.mutate(ctx, admin, quizID, func(quiz *domain.Quiz) error {
		idx, ok := quiz.QuestionByID(questionID)
		if !ok {
			return domain.ErrQuestionNotFound
		}
		patch.ID = questionID
		quiz.Questions[idx] = patch
		return nil
	})
}

// AssignUsers replaces the usernames allowed to take a quiz.
func (s *CatalogService) AssignUsers(ctx context.Context, admin domain.User, quizID string, usernames []string) (domain.Quiz, error) {
	return s.mutate(ctx, admin, quizID, func(quiz *domain.Quiz) error {
		quiz.AuthorizedUsers = dedupe(usernames)
		return nil
	})
}

// DeleteQuiz removes a quiz and every score recorded for it.
func (s *CatalogService) DeleteQuiz(ctx context.Context, admin domain.User, quizID string) error {
	if !admin.IsAdmin() {
		return domain.ErrForbidden
	}
	if err := s.store.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	if err := s.quizzes.Invalidate(ctx, quizID); err != nil {
		return err
	}
	return s.scores.DeleteScoresForQuiz(ctx, quizID)
}

// SeedSamples stores the given quizzes when the catalog is empty.
func (s *CatalogService) SeedSamples(ctx context.Context, admin domain.User, samples []domain.Quiz) (int, error) {
	existing, err := s.store.ListQuizzes(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for i, sample := range samples {
		if _, err := s.CreateQuiz(ctx, admin, sample); err != nil {
			return i, err
		}
	}
	return len(samples), nil
}

func (s *CatalogService) mutate(ctx context.Context, admin domain.User, quizID string, fn func(*domain.Quiz) error) (domain.Quiz, error) {
	if !admin.IsAdmin() {
		return domain.Quiz{}, domain.ErrForbidden
	}
	quiz, err := s.store.LoadQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if err := fn(&quiz); err != nil {
		return domain.Quiz{}, err
	}
	if err := s.store.SaveQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("save quiz: %w", err)
	}
	if err := s.quizzes.Invalidate(ctx, quizID); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

func withIDs(questions []domain.Question) []domain.Question {
	for i := range questions {
		if questions[i].ID == "" {
			questions[i].ID = uuid.NewString()
		}
	}
	return questions
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
