package app

import (
	"context"
	"errors"
	"sort"
	"time"

	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/session"
)

// QuizService contains the quiz-taking use cases.
type QuizService struct {
	attempts AttemptRepository
	quizzes  QuizRepository
	store    QuizStore
	scores   ScoreStore
	deriver  *session.Deriver
	opts     session.Options
	now      func() time.Time
}

func NewQuizService(attempts AttemptRepository, quizzes QuizRepository, store QuizStore, scores ScoreStore, deriver *session.Deriver, opts session.Options) *QuizService {
	return &QuizService{
		attempts: attempts,
		quizzes:  quizzes,
		store:    store,
		scores:   scores,
		deriver:  deriver,
		opts:     opts,
		now:      time.Now,
	}
}

// SetClock is test-only for deterministic timestamps.
func (s *QuizService) SetClock(now func() time.Time) {
	s.now = now
}

// Options returns the derivation and grading options in effect.
func (s *QuizService) Options() session.Options {
	return s.opts
}

// FetchQuiz loads a quiz the user is allowed to take.
func (s *QuizService) FetchQuiz(ctx context.Context, user domain.User, quizID string) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, &domain.FetchError{QuizID: quizID, Err: err}
	}
	if !quiz.VisibleTo(user) {
		return domain.Quiz{}, &domain.FetchError{QuizID: quizID, Err: domain.ErrForbidden}
	}
	return quiz, nil
}

// ListQuizzes returns the quizzes visible to user in catalog order.
func (s *QuizService) ListQuizzes(ctx context.Context, user domain.User) ([]domain.QuizSummary, error) {
	all, err := s.store.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	out := make([]domain.QuizSummary, 0, len(all))
	for _, q := range all {
		if q.VisibleTo(user) {
			out = append(out, q.Summary())
		}
	}
	return out, nil
}

// NextQuizID suggests the quiz following currentID in the user's list.
func (s *QuizService) NextQuizID(ctx context.Context, user domain.User, currentID string) (string, error) {
	list, err := s.ListQuizzes(ctx, user)
	if err != nil {
		return "", err
	}
	id, ok := session.NextQuizID(list, currentID)
	if !ok {
		return "", domain.ErrNoNextQuiz
	}
	return id, nil
}

// NewAttempt derives a fresh attempt from an already fetched quiz.
func (s *QuizService) NewAttempt(user domain.User, quiz domain.Quiz) (session.Attempt, error) {
	return session.Start(s.deriver, quiz, user.ID, s.opts, s.now())
}

// AdvanceAttempt moves a caller-owned attempt forward.
func (s *QuizService) AdvanceAttempt(a session.Attempt) (session.Attempt, error) {
	return a.Advance(s.now())
}

// RetakeAttempt derives the repetition drill for a caller-owned attempt.
func (s *QuizService) RetakeAttempt(a session.Attempt) (session.Attempt, error) {
	return session.Retake(s.deriver, a, s.opts, s.now())
}

// Outcome grades a completed attempt with the configured pass mark.
func (s *QuizService) Outcome(a session.Attempt) (session.Outcome, error) {
	return a.Outcome(s.opts)
}

// SubmitAttempt stores the score of a caller-owned completed attempt.
func (s *QuizService) SubmitAttempt(ctx context.Context, user domain.User, a session.Attempt) (domain.ScoreRecord, error) {
	if a.UserID != user.ID {
		return domain.ScoreRecord{}, domain.ErrAttemptNotFound
	}
	return session.Submit(ctx, s.scores, a, s.now())
}

// StartAttempt fetches a quiz and stores a new attempt for it.
func (s *QuizService) StartAttempt(ctx context.Context, user domain.User, quizID string) (session.Attempt, error) {
	quiz, err := s.FetchQuiz(ctx, user, quizID)
	if err != nil {
		return session.Attempt{}, err
	}
	attempt, err := s.NewAttempt(user, quiz)
	if err != nil {
		return session.Attempt{}, err
	}
	if err := s.attempts.Save(ctx, attempt); err != nil {
		return session.Attempt{}, err
	}
	return attempt, nil
}

// GetAttempt returns one of the user's stored attempts.
func (s *QuizService) GetAttempt(ctx context.Context, user domain.User, attemptID string) (session.Attempt, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return session.Attempt{}, err
	}
	if attempt.UserID != user.ID {
		return session.Attempt{}, domain.ErrAttemptNotFound
	}
	return attempt, nil
}

// SelectAnswer records the user's answer for the current question.
func (s *QuizService) SelectAnswer(ctx context.Context, user domain.User, attemptID, option string) (session.Attempt, session.Feedback, error) {
	var feedback session.Feedback
	next, err := s.mutate(ctx, user, attemptID, func(a session.Attempt) (session.Attempt, error) {
		n, fb, err := a.SelectAnswer(option)
		feedback = fb
		return n, err
	})
	if err != nil {
		return next, session.Feedback{}, err
	}
	return next, feedback, nil
}

// Advance moves a stored attempt to its next question or completes it.
func (s *QuizService) Advance(ctx context.Context, user domain.User, attemptID string) (session.Attempt, error) {
	return s.mutate(ctx, user, attemptID, s.AdvanceAttempt)
}

// Retake replaces a completed attempt with its repetition drill.
func (s *QuizService) Retake(ctx context.Context, user domain.User, attemptID string) (session.Attempt, error) {
	attempt, err := s.GetAttempt(ctx, user, attemptID)
	if err != nil {
		return session.Attempt{}, err
	}
	next, err := s.RetakeAttempt(attempt)
	if err != nil {
		return attempt, err
	}
	return s.replace(ctx, attempt, next)
}

// StartNext replaces a completed attempt with one on the following quiz.
func (s *QuizService) StartNext(ctx context.Context, user domain.User, attemptID string) (session.Attempt, error) {
	attempt, err := s.GetAttempt(ctx, user, attemptID)
	if err != nil {
		return session.Attempt{}, err
	}
	if !attempt.Completed() {
		return attempt, domain.ErrAttemptInProgress
	}
	nextID, err := s.NextQuizID(ctx, user, attempt.QuizID)
	if err != nil {
		return attempt, err
	}
	quiz, err := s.FetchQuiz(ctx, user, nextID)
	if err != nil {
		return attempt, err
	}
	next, err := session.StartNext(s.deriver, attempt, quiz, s.opts, s.now())
	if err != nil {
		return attempt, err
	}
	return s.replace(ctx, attempt, next)
}

// Restart re-derives a stored attempt from the latest copy of its quiz.
func (s *QuizService) Restart(ctx context.Context, user domain.User, attemptID string) (session.Attempt, error) {
	attempt, err := s.GetAttempt(ctx, user, attemptID)
	if err != nil {
		return session.Attempt{}, err
	}
	quiz, err := s.FetchQuiz(ctx, user, attempt.QuizID)
	if err != nil {
		return attempt, err
	}
	return s.mutate(ctx, user, attemptID, func(a session.Attempt) (session.Attempt, error) {
		return session.Refresh(s.deriver, a, quiz, s.opts, s.now())
	})
}

// Submit stores the score of a stored completed attempt. The attempt itself is kept,
// so a failed submission can be retried.
func (s *QuizService) Submit(ctx context.Context, user domain.User, attemptID string) (domain.ScoreRecord, error) {
	attempt, err := s.GetAttempt(ctx, user, attemptID)
	if err != nil {
		return domain.ScoreRecord{}, err
	}
	return s.SubmitAttempt(ctx, user, attempt)
}

// Scores lists the user's stored results, newest first.
func (s *QuizService) Scores(ctx context.Context, user domain.User) ([]domain.ScoreRecord, error) {
	return s.scores.ListScores(ctx, user.ID)
}

// maxUpdateTries bounds how often a transition is re-applied after losing a race.
const maxUpdateTries = 3

// mutate applies fn to the latest stored copy of an attempt and saves the result
// only if no other request changed the attempt in between. A lost race re-runs fn
// on the fresh copy, so a second answer for the same question sees the first one.
func (s *QuizService) mutate(ctx context.Context, user domain.User, attemptID string, fn func(session.Attempt) (session.Attempt, error)) (session.Attempt, error) {
	var attempt session.Attempt
	for i := 0; i < maxUpdateTries; i++ {
		var err error
		attempt, err = s.GetAttempt(ctx, user, attemptID)
		if err != nil {
			return session.Attempt{}, err
		}
		next, err := fn(attempt)
		if err != nil {
			return attempt, err
		}
		next.Revision = attempt.Revision + 1
		err = s.attempts.Update(ctx, next, attempt.Revision)
		if errors.Is(err, domain.ErrAttemptConflict) {
			continue
		}
		if err != nil {
			return attempt, err
		}
		return next, nil
	}
	return attempt, domain.ErrAttemptConflict
}

// replace swaps old for next. Old is claimed first with a conditional update,
// so of two concurrent replacements only one creates a new attempt.
func (s *QuizService) replace(ctx context.Context, old, next session.Attempt) (session.Attempt, error) {
	claimed := old
	claimed.Revision++
	if err := s.attempts.Update(ctx, claimed, old.Revision); err != nil {
		if errors.Is(err, domain.ErrAttemptNotFound) {
			// already replaced by the request that won
			err = domain.ErrAttemptConflict
		}
		return old, err
	}
	if err := s.attempts.Save(ctx, next); err != nil {
		return old, err
	}
	if err := s.attempts.Delete(ctx, old.ID); err != nil && !errors.Is(err, domain.ErrAttemptNotFound) {
		return next, err
	}
	return next, nil
}
