package session

import (
	"fmt"

	"quiz-session-service/internal/domain"
)

// DefaultPassThreshold is the inclusive percentage needed to pass.
const DefaultPassThreshold = 80.0

// Result classifies a finished attempt.
type Result string

const (
	Passed Result = "passed"
	Failed Result = "failed"
)

// Options tune question-set derivation and grading.
type Options struct {
	Cap           int     // max questions per first pass; <= 0 means no cap
	RepeatFactor  int     // copies of each question in a retake drill
	PassThreshold float64 // inclusive pass mark in percent
}

func DefaultOptions() Options {
	return Options{Cap: 30, RepeatFactor: 4, PassThreshold: DefaultPassThreshold}
}

// Classify applies the configured threshold.
func (o Options) Classify(percent float64) Result {
	threshold := o.PassThreshold
	if threshold <= 0 {
		threshold = DefaultPassThreshold
	}
	if percent >= threshold {
		return Passed
	}
	return Failed
}

// Classify applies the default 80% threshold.
func Classify(percent float64) Result {
	return DefaultOptions().Classify(percent)
}

// ComputeScore counts answers equal to their question's correct answer.
// Unanswered indices count as incorrect.
func ComputeScore(questions []domain.Question, selected map[int]string) (score, total int) {
	total = len(questions)
	for i, q := range questions {
		if answer, ok := selected[i]; ok && q.IsCorrect(answer) {
			score++
		}
	}
	return score, total
}

// ComputePoints is the weighted variant of ComputeScore.
func ComputePoints(questions []domain.Question, selected map[int]string) (earned, max int) {
	for i, q := range questions {
		max += q.PointsValue()
		if answer, ok := selected[i]; ok && q.IsCorrect(answer) {
			earned += q.PointsValue()
		}
	}
	return earned, max
}

// ComputePercent returns 100*score/total; total must be positive.
func ComputePercent(score, total int) (float64, error) {
	if total <= 0 {
		return 0, fmt.Errorf("compute percent: %w", domain.ErrEmptyQuestionSet)
	}
	return 100 * float64(score) / float64(total), nil
}

// Outcome summarizes a completed attempt.
type Outcome struct {
	Score     int     `json:"score"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
	Result    Result  `json:"result"`
	Points    int     `json:"points"`
	MaxPoints int     `json:"maxPoints"`
}

// Outcome grades a completed attempt.
func (a Attempt) Outcome(opts Options) (Outcome, error) {
	if !a.Completed() {
		return Outcome{}, domain.ErrAttemptInProgress
	}
	percent, err := ComputePercent(a.Score, a.Total)
	if err != nil {
		return Outcome{}, err
	}
	points, maxPoints := ComputePoints(a.Questions, a.SelectedAnswers)
	return Outcome{
		Score:     a.Score,
		Total:     a.Total,
		Percent:   percent,
		Result:    opts.Classify(percent),
		Points:    points,
		MaxPoints: maxPoints,
	}, nil
}
