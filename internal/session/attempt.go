package session

import (
	"time"

	"github.com/google/uuid"
	"quiz-session-service/internal/domain"
)

// Status is the coarse state of an attempt.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Attempt is one pass through a derived question set.
// Transitions never mutate the receiver; they return the next Attempt value.
type Attempt struct {
	ID              string            `json:"id"`
	UserID          string            `json:"userId"`
	QuizID          string            `json:"quizId"`
	QuizTitle       string            `json:"quizTitle"`
	Category        string            `json:"category"`
	Questions       []domain.Question `json:"questions"`
	CurrentIndex    int               `json:"currentIndex"`
	SelectedAnswers map[int]string    `json:"selectedAnswers"`
	FeedbackVisible bool              `json:"feedbackVisible"`
	Status          Status            `json:"status"`
	Score           int               `json:"score"`
	Total           int               `json:"total"`
	Round           int               `json:"round"` // 0 for the first pass, +1 per retake
	Revision        int64             `json:"revision"`
	StartedAt       time.Time         `json:"startedAt"`
	CompletedAt     time.Time         `json:"completedAt,omitempty"`
}

// Feedback is shown right after an answer is recorded.
type Feedback struct {
	QuestionID    string `json:"questionId"`
	Selected      string `json:"selected"`
	CorrectAnswer string `json:"correctAnswer"`
	Correct       bool   `json:"correct"`
	Explanation   string `json:"explanation,omitempty"`
}

// Start derives a fresh attempt for quiz on behalf of userID.
func Start(d *Deriver, quiz domain.Quiz, userID string, opts Options, now time.Time) (Attempt, error) {
	set, err := d.DeriveInitial(quiz.Questions, opts.Cap)
	if err != nil {
		return Attempt{}, err
	}
	return newAttempt(uuid.NewString(), quiz, userID, set, 0, now), nil
}

// Retake builds a new attempt drilling the questions missed in a completed one.
func Retake(d *Deriver, prev Attempt, opts Options, now time.Time) (Attempt, error) {
	if !prev.Completed() {
		return prev, domain.ErrAttemptInProgress
	}
	set, err := d.DeriveRetake(prev.Questions, prev.SelectedAnswers, opts.RepeatFactor)
	if err != nil {
		return prev, err
	}
	next := prev
	next.ID = uuid.NewString()
	next.Revision = 0
	return reset(next, set, prev.Round+1, now), nil
}

// StartNext discards a completed attempt and starts on another quiz.
func StartNext(d *Deriver, prev Attempt, quiz domain.Quiz, opts Options, now time.Time) (Attempt, error) {
	if !prev.Completed() {
		return prev, domain.ErrAttemptInProgress
	}
	return Start(d, quiz, prev.UserID, opts, now)
}

// Refresh re-derives an attempt from an updated copy of its quiz, keeping the attempt ID.
func Refresh(d *Deriver, prev Attempt, quiz domain.Quiz, opts Options, now time.Time) (Attempt, error) {
	set, err := d.DeriveInitial(quiz.Questions, opts.Cap)
	if err != nil {
		return prev, err
	}
	return newAttempt(prev.ID, quiz, prev.UserID, set, 0, now), nil
}

func newAttempt(id string, quiz domain.Quiz, userID string, set []domain.Question, round int, now time.Time) Attempt {
	a := Attempt{
		ID:        id,
		UserID:    userID,
		QuizID:    quiz.ID,
		QuizTitle: quiz.Title,
		Category:  quiz.Category,
	}
	return reset(a, set, round, now)
}

func reset(a Attempt, set []domain.Question, round int, now time.Time) Attempt {
	a.Questions = set
	a.CurrentIndex = 0
	a.SelectedAnswers = map[int]string{}
	a.FeedbackVisible = false
	a.Status = StatusInProgress
	a.Score = 0
	a.Total = 0
	a.Round = round
	a.StartedAt = now
	a.CompletedAt = time.Time{}
	return a
}

// Completed reports whether the attempt reached its terminal state.
func (a Attempt) Completed() bool {
	return a.Status == StatusCompleted
}

// CurrentQuestion returns the question at CurrentIndex.
func (a Attempt) CurrentQuestion() (domain.Question, bool) {
	if a.Completed() || a.CurrentIndex < 0 || a.CurrentIndex >= len(a.Questions) {
		return domain.Question{}, false
	}
	return a.Questions[a.CurrentIndex], true
}

// HasSelectedAnswer reports whether the current question has been answered.
func (a Attempt) HasSelectedAnswer() bool {
	_, ok := a.SelectedAnswers[a.CurrentIndex]
	return ok
}

// IsLast reports whether the current question is the final one.
func (a Attempt) IsLast() bool {
	return a.CurrentIndex == len(a.Questions)-1
}

// SelectAnswer records option for the current question. The first answer wins:
// a second call leaves the attempt unchanged and returns ErrAnswerAlreadySelected.
func (a Attempt) SelectAnswer(option string) (Attempt, Feedback, error) {
	q, ok := a.CurrentQuestion()
	if !ok {
		return a, Feedback{}, domain.ErrAttemptCompleted
	}
	if a.HasSelectedAnswer() {
		return a, Feedback{}, domain.ErrAnswerAlreadySelected
	}
	if !q.HasOption(option) {
		return a, Feedback{}, domain.ErrOptionNotFound
	}

	next := a
	next.SelectedAnswers = make(map[int]string, len(a.SelectedAnswers)+1)
	for k, v := range a.SelectedAnswers {
		next.SelectedAnswers[k] = v
	}
	next.SelectedAnswers[a.CurrentIndex] = option
	next.FeedbackVisible = true

	fb, _ := next.Feedback()
	return next, fb, nil
}

// Feedback returns the feedback for the current question while it is visible.
func (a Attempt) Feedback() (Feedback, bool) {
	if !a.FeedbackVisible {
		return Feedback{}, false
	}
	q, ok := a.CurrentQuestion()
	if !ok {
		return Feedback{}, false
	}
	selected, ok := a.SelectedAnswers[a.CurrentIndex]
	if !ok {
		return Feedback{}, false
	}
	return Feedback{
		QuestionID:    q.ID,
		Selected:      selected,
		CorrectAnswer: q.CorrectAnswer,
		Correct:       q.IsCorrect(selected),
		Explanation:   q.Explanation,
	}, true
}

// Advance moves to the next question, or completes the attempt after the last one.
func (a Attempt) Advance(now time.Time) (Attempt, error) {
	if a.Completed() {
		return a, domain.ErrAttemptCompleted
	}
	if !a.HasSelectedAnswer() {
		return a, domain.ErrNoAnswerSelected
	}

	next := a
	next.FeedbackVisible = false
	if a.IsLast() {
		next.Score, next.Total = ComputeScore(a.Questions, a.SelectedAnswers)
		next.Status = StatusCompleted
		next.CompletedAt = now
		return next, nil
	}
	next.CurrentIndex++
	return next, nil
}
