package http

import (
	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/session"
)

// QuestionView is a question as shown to a quiz taker: no answer key.
type QuestionView struct {
	ID           string   `json:"id"`
	QuestionText string   `json:"questionText"`
	Options      []string `json:"options"`
	Points       int      `json:"points"`
}

// AttemptView is the client-facing projection of an attempt. The correct answer and
// explanation only appear in Feedback, i.e. after the current question was answered.
type AttemptView struct {
	ID        string            `json:"id"`
	QuizID    string            `json:"quizId"`
	QuizTitle string            `json:"quizTitle"`
	Category  string            `json:"category"`
	Status    session.Status    `json:"status"`
	Round     int               `json:"round"`
	Index     int               `json:"index"`
	Count     int               `json:"count"`
	IsLast    bool              `json:"isLast"`
	Question  *QuestionView     `json:"question,omitempty"`
	Selected  string            `json:"selected,omitempty"`
	Feedback  *session.Feedback `json:"feedback,omitempty"`
	Outcome   *session.Outcome  `json:"outcome,omitempty"`
}

func newAttemptView(a session.Attempt, opts session.Options) AttemptView {
	view := AttemptView{
		ID:        a.ID,
		QuizID:    a.QuizID,
		QuizTitle: a.QuizTitle,
		Category:  a.Category,
		Status:    a.Status,
		Round:     a.Round,
		Index:     a.CurrentIndex,
		Count:     len(a.Questions),
		IsLast:    a.IsLast(),
	}
	if a.Completed() {
		if outcome, err := a.Outcome(opts); err == nil {
			view.Outcome = &outcome
		}
		return view
	}
	if q, ok := a.CurrentQuestion(); ok {
		view.Question = &QuestionView{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			Options:      q.Options,
			Points:       q.PointsValue(),
		}
		view.Selected = a.SelectedAnswers[a.CurrentIndex]
	}
	if fb, ok := a.Feedback(); ok {
		view.Feedback = &fb
	}
	return view
}

type scoreView struct {
	domain.ScoreRecord
	Percent float64        `json:"percent"`
	Result  session.Result `json:"result"`
}

func newScoreView(r domain.ScoreRecord, opts session.Options) scoreView {
	view := scoreView{ScoreRecord: r}
	if percent, err := session.ComputePercent(r.Score, r.Total); err == nil {
		view.Percent = percent
		view.Result = opts.Classify(percent)
	}
	return view
}
