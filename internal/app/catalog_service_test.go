package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-session-service/internal/domain"
)

func TestCreateQuizAssignsIdentity(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	f.catalog.SetClock(func() time.Time { return now })

	draft := domain.Quiz{
		Title:    "Colors",
		Category: "Art",
		Questions: []domain.Question{
			{QuestionText: "Sky color?", Options: []string{"blue", "green"}, CorrectAnswer: "blue"},
		},
	}
	if _, err := f.catalog.CreateQuiz(ctx, alice, draft); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for non-admin, got %v", err)
	}

	quiz, err := f.catalog.CreateQuiz(ctx, admin, draft)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if quiz.ID == "" || quiz.CreatedBy != admin.ID || !quiz.CreatedAt.Equal(now) {
		t.Fatalf("identity not assigned: %+v", quiz)
	}
	if quiz.Questions[0].ID == "" || quiz.Questions[0].Points != 1 {
		t.Fatalf("question defaults not applied: %+v", quiz.Questions[0])
	}
	if _, err := f.store.LoadQuiz(ctx, quiz.ID); err != nil {
		t.Fatalf("quiz not stored: %v", err)
	}
}

func TestImportQuizRejectsBadDocuments(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	cases := []struct {
		name  string
		raw   string
		field string
	}{
		{"malformed", `{"title":`, ""},
		{"missing title", `{"category":"x","questions":[{"questionText":"a","options":["1","2"],"correctAnswer":"1"}]}`, "title"},
		{"no questions", `{"title":"t","category":"x","questions":[]}`, "questions"},
		{"answer outside options", `{"title":"t","category":"x","questions":[{"questionText":"a","options":["1","2"],"correctAnswer":"3"}]}`, "questions[0].correctAnswer"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.catalog.ImportQuiz(ctx, admin, []byte(tc.raw))
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, verr.Field)
			}
		})
	}

	quiz, err := f.catalog.ImportQuiz(ctx, admin, []byte(`{"title":"t","category":"x","questions":[{"questionText":"a","options":["1","2"],"correctAnswer":"2","points":3}]}`))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if quiz.Questions[0].Points != 3 {
		t.Fatalf("points not kept: %+v", quiz.Questions[0])
	}
}

func TestAppendQuestionsInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	// warm the cache
	if _, err := f.service.FetchQuiz(ctx, alice, "quiz-2"); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	extra := []domain.Question{{QuestionText: "Capital of Spain?", Options: []string{"Madrid", "Lisbon"}, CorrectAnswer: "Madrid"}}
	if _, err := f.catalog.AppendQuestions(ctx, admin, "quiz-2", extra); err != nil {
		t.Fatalf("append: %v", err)
	}

	quiz, err := f.service.FetchQuiz(ctx, alice, "quiz-2")
	if err != nil {
		t.Fatalf("fetch after append: %v", err)
	}
	if len(quiz.Questions) != 2 || quiz.Questions[1].ID == "" {
		t.Fatalf("expected appended question visible, got %+v", quiz.Questions)
	}

	bad := []domain.Question{{QuestionText: "x", Options: []string{"only"}, CorrectAnswer: "only"}}
	_, err = f.catalog.AppendQuestions(ctx, admin, "quiz-2", bad)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Field != "questions[0].options" {
		t.Fatalf("expected options validation error, got %v", err)
	}
}

func TestUpdateQuestionUnknownID(t *testing.T) {
	f := newFixture()
	patch := []byte(`{"questionText":"a","options":["1","2"],"correctAnswer":"1"}`)
	if _, err := f.catalog.UpdateQuestion(context.Background(), admin, "quiz-2", "nope", patch); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question not found, got %v", err)
	}
}

func TestAssignUsersControlsVisibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	if _, err := f.catalog.AssignUsers(ctx, admin, "quiz-1", []string{"bob", "bob", ""}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := f.service.FetchQuiz(ctx, bob, "quiz-1"); err != nil {
		t.Fatalf("bob should now see quiz-1: %v", err)
	}
	if _, err := f.service.FetchQuiz(ctx, alice, "quiz-1"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("alice should have lost access, got %v", err)
	}
}

func TestDeleteQuizRemovesScores(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	attempt, _ := f.service.StartAttempt(ctx, alice, "quiz-2")
	attempt = finish(t, f, attempt)
	if _, err := f.service.Submit(ctx, alice, attempt.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := f.catalog.DeleteQuiz(ctx, admin, "quiz-2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if list, _ := f.service.Scores(ctx, alice); len(list) != 0 {
		t.Fatalf("expected scores removed, got %+v", list)
	}
	if _, err := f.service.FetchQuiz(ctx, alice, "quiz-2"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected deleted quiz gone from cache too, got %v", err)
	}
	if err := f.catalog.DeleteQuiz(ctx, admin, "quiz-2"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestSeedSamplesOnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	samples := []domain.Quiz{{
		Title:    "Seeded",
		Category: "Demo",
		Questions: []domain.Question{
			{QuestionText: "?", Options: []string{"a", "b"}, CorrectAnswer: "a"},
		},
	}}
	n, err := f.catalog.SeedSamples(ctx, admin, samples)
	if err != nil || n != 0 {
		t.Fatalf("expected no seeding into a populated catalog, got %d %v", n, err)
	}

	for _, q := range sampleQuizzes() {
		_ = f.catalog.DeleteQuiz(ctx, admin, q.ID)
	}
	n, err = f.catalog.SeedSamples(ctx, admin, samples)
	if err != nil || n != 1 {
		t.Fatalf("expected one seeded quiz, got %d %v", n, err)
	}
}
