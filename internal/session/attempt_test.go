package session_test

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/session"
)

var now = time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)

func twoQuestionQuiz() domain.Quiz {
	return domain.Quiz{
		ID:       "quiz-1",
		Title:    "Letters",
		Category: "Alphabet",
		Questions: []domain.Question{
			{ID: "Q1", QuestionText: "Pick A", Options: []string{"A", "B"}, CorrectAnswer: "A", Points: 1},
			{ID: "Q2", QuestionText: "Pick D", Options: []string{"C", "D"}, CorrectAnswer: "D", Points: 1},
		},
	}
}

func TestAttemptEndToEnd(t *testing.T) {
	d := session.NewDeriverWithSource(rand.NewSource(11))
	opts := session.DefaultOptions()

	a, err := session.Start(d, twoQuestionQuiz(), "u1", opts, now)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if a.Status != session.StatusInProgress || a.CurrentIndex != 0 || len(a.SelectedAnswers) != 0 {
		t.Fatalf("unexpected initial state %+v", a)
	}

	answers := map[string]string{"Q1": "A", "Q2": "C"}
	for i := 0; i < 2; i++ {
		q, ok := a.CurrentQuestion()
		if !ok {
			t.Fatalf("expected a current question at step %d", i)
		}
		var fb session.Feedback
		a, fb, err = a.SelectAnswer(answers[q.ID])
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		if fb.Correct != (q.ID == "Q1") {
			t.Fatalf("unexpected feedback for %s: %+v", q.ID, fb)
		}
		a, err = a.Advance(now)
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	if !a.Completed() {
		t.Fatalf("expected attempt completed")
	}
	out, err := a.Outcome(opts)
	if err != nil {
		t.Fatalf("outcome: %v", err)
	}
	if out.Score != 1 || out.Total != 2 || out.Percent != 50.0 || out.Result != session.Failed {
		t.Fatalf("unexpected outcome %+v", out)
	}

	retake, err := session.Retake(d, a, opts, now)
	if err != nil {
		t.Fatalf("retake: %v", err)
	}
	if len(retake.Questions) != 4 {
		t.Fatalf("expected 4 retake questions, got %d", len(retake.Questions))
	}
	for _, q := range retake.Questions {
		if q.ID != "Q2" {
			t.Fatalf("expected only Q2 in retake, got %s", q.ID)
		}
	}
	if retake.Status != session.StatusInProgress || retake.CurrentIndex != 0 || len(retake.SelectedAnswers) != 0 || retake.Round != 1 {
		t.Fatalf("retake should be a fresh attempt, got %+v", retake)
	}
	if retake.ID == a.ID {
		t.Fatalf("retake should get a new attempt id")
	}
}

func TestSelectAnswerFirstAnswerWins(t *testing.T) {
	a := startAttempt(t)
	q, _ := a.CurrentQuestion()
	first, second := q.Options[0], q.Options[1]

	a, _, err := a.SelectAnswer(first)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	again, _, err := a.SelectAnswer(second)
	if !errors.Is(err, domain.ErrAnswerAlreadySelected) {
		t.Fatalf("expected already-selected error, got %v", err)
	}
	if again.SelectedAnswers[0] != first {
		t.Fatalf("first answer must win, got %q", again.SelectedAnswers[0])
	}
}

func TestSelectAnswerDoesNotMutateReceiver(t *testing.T) {
	a := startAttempt(t)
	q, _ := a.CurrentQuestion()

	next, _, err := a.SelectAnswer(q.Options[0])
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if a.HasSelectedAnswer() || a.FeedbackVisible {
		t.Fatalf("original attempt value was mutated")
	}
	if !next.HasSelectedAnswer() || !next.FeedbackVisible {
		t.Fatalf("next attempt should carry the answer and feedback")
	}
}

func TestSelectAnswerRejectsUnknownOption(t *testing.T) {
	a := startAttempt(t)
	if _, _, err := a.SelectAnswer("not-an-option"); !errors.Is(err, domain.ErrOptionNotFound) {
		t.Fatalf("expected option error, got %v", err)
	}
}

func TestAdvanceRequiresAnswer(t *testing.T) {
	a := startAttempt(t)
	next, err := a.Advance(now)
	if !errors.Is(err, domain.ErrNoAnswerSelected) {
		t.Fatalf("expected no-answer error, got %v", err)
	}
	if next.CurrentIndex != 0 {
		t.Fatalf("advance without answer must not skip the question")
	}
}

func TestAdvanceClearsFeedback(t *testing.T) {
	a := startAttempt(t)
	q, _ := a.CurrentQuestion()
	a, _, _ = a.SelectAnswer(q.CorrectAnswer)
	if _, ok := a.Feedback(); !ok {
		t.Fatalf("expected visible feedback after answering")
	}
	a, err := a.Advance(now)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, ok := a.Feedback(); ok || a.CurrentIndex != 1 {
		t.Fatalf("expected hidden feedback on question 2, got index %d", a.CurrentIndex)
	}
}

func TestCompletedAttemptRejectsInteraction(t *testing.T) {
	a := answerAll(t, startAttempt(t), func(q domain.Question) string { return q.CorrectAnswer })

	if _, _, err := a.SelectAnswer("A"); !errors.Is(err, domain.ErrAttemptCompleted) {
		t.Fatalf("expected completed error on select, got %v", err)
	}
	if _, err := a.Advance(now); !errors.Is(err, domain.ErrAttemptCompleted) {
		t.Fatalf("expected completed error on advance, got %v", err)
	}
	out, err := a.Outcome(session.DefaultOptions())
	if err != nil {
		t.Fatalf("outcome: %v", err)
	}
	if out.Score != out.Total || out.Result != session.Passed {
		t.Fatalf("expected perfect pass, got %+v", out)
	}
}

func TestRetakeAndNextRequireCompletion(t *testing.T) {
	d := session.NewDeriver()
	a := startAttempt(t)
	if _, err := session.Retake(d, a, session.DefaultOptions(), now); !errors.Is(err, domain.ErrAttemptInProgress) {
		t.Fatalf("expected in-progress error, got %v", err)
	}
	if _, err := session.StartNext(d, a, twoQuestionQuiz(), session.DefaultOptions(), now); !errors.Is(err, domain.ErrAttemptInProgress) {
		t.Fatalf("expected in-progress error, got %v", err)
	}
}

func TestStartNextBuildsFreshAttempt(t *testing.T) {
	d := session.NewDeriver()
	done := answerAll(t, startAttempt(t), func(q domain.Question) string { return q.CorrectAnswer })

	other := domain.Quiz{
		ID:    "quiz-2",
		Title: "Numbers",
		Questions: []domain.Question{
			{ID: "N1", QuestionText: "1+1", Options: []string{"2", "3"}, CorrectAnswer: "2"},
		},
	}
	next, err := session.StartNext(d, done, other, session.DefaultOptions(), now)
	if err != nil {
		t.Fatalf("start next: %v", err)
	}
	if next.QuizID != "quiz-2" || next.UserID != done.UserID || next.Completed() || len(next.Questions) != 1 {
		t.Fatalf("unexpected next attempt %+v", next)
	}
}

func TestRefreshKeepsAttemptID(t *testing.T) {
	d := session.NewDeriver()
	a := startAttempt(t)
	quiz := twoQuestionQuiz()
	quiz.Questions = append(quiz.Questions, domain.Question{ID: "Q3", QuestionText: "Pick E", Options: []string{"E", "F"}, CorrectAnswer: "E"})

	refreshed, err := session.Refresh(d, a, quiz, session.DefaultOptions(), now)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.ID != a.ID || len(refreshed.Questions) != 3 {
		t.Fatalf("unexpected refreshed attempt %+v", refreshed)
	}
}

func startAttempt(t *testing.T) session.Attempt {
	t.Helper()
	a, err := session.Start(session.NewDeriver(), twoQuestionQuiz(), "u1", session.DefaultOptions(), now)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return a
}

func answerAll(t *testing.T, a session.Attempt, pick func(domain.Question) string) session.Attempt {
	t.Helper()
	for !a.Completed() {
		q, _ := a.CurrentQuestion()
		var err error
		if a, _, err = a.SelectAnswer(pick(q)); err != nil {
			t.Fatalf("select: %v", err)
		}
		if a, err = a.Advance(now); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	return a
}
