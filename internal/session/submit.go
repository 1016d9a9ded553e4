package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"quiz-session-service/internal/domain"
)

// ScoreRepository persists finished-attempt records.
type ScoreRepository interface {
	InsertScore(ctx context.Context, record domain.ScoreRecord) error
}

// BuildScoreRecord zips the active set with the recorded answers.
func BuildScoreRecord(a Attempt, now time.Time) (domain.ScoreRecord, error) {
	if !a.Completed() {
		return domain.ScoreRecord{}, domain.ErrAttemptInProgress
	}
	answers := make([]domain.AnswerReport, len(a.Questions))
	for i, q := range a.Questions {
		selected := a.SelectedAnswers[i]
		answers[i] = domain.AnswerReport{
			QuestionID:     q.ID,
			SelectedAnswer: selected,
			IsCorrect:      q.IsCorrect(selected),
		}
	}
	return domain.ScoreRecord{
		ID:        RecordID(a),
		UserID:    a.UserID,
		QuizID:    a.QuizID,
		QuizTitle: a.QuizTitle,
		Category:  a.Category,
		Score:     a.Score,
		Total:     a.Total,
		Answers:   answers,
		CreatedAt: now,
	}, nil
}

// RecordID names the score record of one completed run of an attempt. Retrying a
// submission yields the same ID, so stores with a unique key keep a single record.
func RecordID(a Attempt) string {
	key := a.ID + "/" + a.StartedAt.UTC().Format(time.RFC3339Nano)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

// Submit stores the record for a completed attempt. The attempt is passed by value
// and is never altered, so a failed submission can simply be retried.
func Submit(ctx context.Context, scores ScoreRepository, a Attempt, now time.Time) (domain.ScoreRecord, error) {
	record, err := BuildScoreRecord(a, now)
	if err != nil {
		return domain.ScoreRecord{}, err
	}
	if err := scores.InsertScore(ctx, record); err != nil {
		return domain.ScoreRecord{}, &domain.SubmissionError{QuizID: a.QuizID, Err: err}
	}
	return record, nil
}
