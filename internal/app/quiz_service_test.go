package app_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/infra/memory"
	"quiz-session-service/internal/session"
)

var (
	alice = domain.User{ID: "u1", Username: "alice", Role: domain.RoleUser}
	bob   = domain.User{ID: "u2", Username: "bob", Role: domain.RoleUser}
	admin = domain.User{ID: "a1", Username: "admin", Role: domain.RoleAdmin}
)

type fixture struct {
	service *app.QuizService
	catalog *app.CatalogService
	store   *memory.QuizStore
	scores  *memory.ScoreStore
}

func newFixture() fixture {
	store := memory.NewQuizStore(sampleQuizzes()...)
	repo := memory.NewQuizRepository(store, time.Minute)
	scores := memory.NewScoreStore()
	service := app.NewQuizService(memory.NewAttemptStore(), repo, store, scores,
		session.NewDeriverWithSource(rand.NewSource(42)), session.DefaultOptions())
	return fixture{
		service: service,
		catalog: app.NewCatalogService(store, repo, scores),
		store:   store,
		scores:  scores,
	}
}

func TestFetchQuizChecksVisibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	if _, err := f.service.FetchQuiz(ctx, alice, "quiz-1"); err != nil {
		t.Fatalf("fetch visible quiz: %v", err)
	}

	_, err := f.service.FetchQuiz(ctx, bob, "quiz-1")
	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) || !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden fetch error, got %v", err)
	}

	_, err = f.service.FetchQuiz(ctx, admin, "missing")
	if !errors.As(err, &fetchErr) || fetchErr.QuizID != "missing" || !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not-found fetch error, got %v", err)
	}
}

func TestListQuizzesAndNext(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	list, err := f.service.ListQuizzes(ctx, alice)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "quiz-1" || list[1].ID != "quiz-2" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if list, _ := f.service.ListQuizzes(ctx, bob); len(list) != 0 {
		t.Fatalf("bob should see nothing, got %+v", list)
	}

	next, err := f.service.NextQuizID(ctx, alice, "quiz-1")
	if err != nil || next != "quiz-2" {
		t.Fatalf("expected quiz-2, got %q %v", next, err)
	}
	if _, err := f.service.NextQuizID(ctx, alice, "quiz-2"); !errors.Is(err, domain.ErrNoNextQuiz) {
		t.Fatalf("expected no next quiz, got %v", err)
	}
	if _, err := f.service.NextQuizID(ctx, alice, "unknown"); !errors.Is(err, domain.ErrNoNextQuiz) {
		t.Fatalf("expected no next quiz for unknown id, got %v", err)
	}
}

func TestStoredAttemptFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	attempt, err := f.service.StartAttempt(ctx, alice, "quiz-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.service.GetAttempt(ctx, bob, attempt.ID); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("attempt must be private to its owner, got %v", err)
	}

	for !attempt.Completed() {
		q, _ := attempt.CurrentQuestion()
		option := q.CorrectAnswer
		if q.ID == "q2" {
			option = "6"
		}
		attempt, _, err = f.service.SelectAnswer(ctx, alice, attempt.ID, option)
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		attempt, err = f.service.Advance(ctx, alice, attempt.ID)
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	outcome, err := f.service.Outcome(attempt)
	if err != nil {
		t.Fatalf("outcome: %v", err)
	}
	if outcome.Score != 1 || outcome.Total != 2 || outcome.Result != session.Failed {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	record, err := f.service.Submit(ctx, alice, attempt.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if record.UserID != alice.ID || record.QuizTitle != "Arithmetic" || len(record.Answers) != 2 {
		t.Fatalf("unexpected record: %+v", record)
	}
	scores, _ := f.service.Scores(ctx, alice)
	if len(scores) != 1 {
		t.Fatalf("expected one stored score, got %d", len(scores))
	}

	retake, err := f.service.Retake(ctx, alice, attempt.ID)
	if err != nil {
		t.Fatalf("retake: %v", err)
	}
	if len(retake.Questions) != 4 || retake.Round != 1 {
		t.Fatalf("expected q2 drilled four times, got %d questions round %d", len(retake.Questions), retake.Round)
	}
	for _, q := range retake.Questions {
		if q.ID != "q2" {
			t.Fatalf("retake should only contain the missed question, got %s", q.ID)
		}
	}
	if _, err := f.service.GetAttempt(ctx, alice, attempt.ID); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected replaced attempt deleted, got %v", err)
	}
	if _, err := f.service.StartNext(ctx, alice, retake.ID); !errors.Is(err, domain.ErrAttemptInProgress) {
		t.Fatalf("expected next to require completion, got %v", err)
	}
}

func TestStartNextMovesToFollowingQuiz(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	attempt, _ := f.service.StartAttempt(ctx, alice, "quiz-1")
	attempt = finish(t, f, attempt)

	next, err := f.service.StartNext(ctx, alice, attempt.ID)
	if err != nil {
		t.Fatalf("start next: %v", err)
	}
	if next.QuizID != "quiz-2" || next.Completed() || next.Round != 0 {
		t.Fatalf("unexpected next attempt: %+v", next)
	}

	next = finish(t, f, next)
	if _, err := f.service.StartNext(ctx, alice, next.ID); !errors.Is(err, domain.ErrNoNextQuiz) {
		t.Fatalf("expected no next quiz, got %v", err)
	}
}

func TestRestartPicksUpEditedQuestion(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	attempt, _ := f.service.StartAttempt(ctx, alice, "quiz-2")
	attempt, _, _ = f.service.SelectAnswer(ctx, alice, attempt.ID, "Paris")

	patch := []byte(`{"questionText":"Capital of Italy?","options":["Paris","Rome"],"correctAnswer":"Rome"}`)
	if _, err := f.catalog.UpdateQuestion(ctx, admin, "quiz-2", "g1", patch); err != nil {
		t.Fatalf("update question: %v", err)
	}

	restarted, err := f.service.Restart(ctx, alice, attempt.ID)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if restarted.ID != attempt.ID || restarted.HasSelectedAnswer() {
		t.Fatalf("restart should keep the id and clear answers: %+v", restarted)
	}
	if q, _ := restarted.CurrentQuestion(); q.CorrectAnswer != "Rome" || q.ID != "g1" {
		t.Fatalf("restart did not pick up the edit: %+v", q)
	}
}

type failingScores struct {
	*memory.ScoreStore
	fail bool
}

func (s *failingScores) InsertScore(ctx context.Context, r domain.ScoreRecord) error {
	if s.fail {
		return errors.New("store down")
	}
	return s.ScoreStore.InsertScore(ctx, r)
}

func TestSubmitFailureCanBeRetried(t *testing.T) {
	ctx := context.Background()
	store := memory.NewQuizStore(sampleQuizzes()...)
	scores := &failingScores{ScoreStore: memory.NewScoreStore(), fail: true}
	service := app.NewQuizService(memory.NewAttemptStore(), memory.NewQuizRepository(store, time.Minute), store, scores,
		session.NewDeriver(), session.DefaultOptions())

	attempt, _ := service.StartAttempt(ctx, alice, "quiz-2")
	attempt, _, _ = service.SelectAnswer(ctx, alice, attempt.ID, "Paris")
	attempt, _ = service.Advance(ctx, alice, attempt.ID)

	_, err := service.Submit(ctx, alice, attempt.ID)
	var subErr *domain.SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatalf("expected submission error, got %v", err)
	}

	scores.fail = false
	if _, err := service.Submit(ctx, alice, attempt.ID); err != nil {
		t.Fatalf("retry submit: %v", err)
	}
	if list, _ := service.Scores(ctx, alice); len(list) != 1 {
		t.Fatalf("expected one score after retry, got %d", len(list))
	}
}

func TestSubmitAttemptRejectsForeignAttempt(t *testing.T) {
	f := newFixture()
	quiz, _ := f.service.FetchQuiz(context.Background(), alice, "quiz-2")
	attempt, err := f.service.NewAttempt(alice, quiz)
	if err != nil {
		t.Fatalf("new attempt: %v", err)
	}
	if _, err := f.service.SubmitAttempt(context.Background(), bob, attempt); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected foreign attempt rejected, got %v", err)
	}
}

func finish(t *testing.T, f fixture, attempt session.Attempt) session.Attempt {
	t.Helper()
	ctx := context.Background()
	var err error
	for !attempt.Completed() {
		q, _ := attempt.CurrentQuestion()
		if attempt, _, err = f.service.SelectAnswer(ctx, alice, attempt.ID, q.CorrectAnswer); err != nil {
			t.Fatalf("select: %v", err)
		}
		if attempt, err = f.service.Advance(ctx, alice, attempt.ID); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	return attempt
}

func sampleQuizzes() []domain.Quiz {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Quiz{
		{
			ID:       "quiz-1",
			Title:    "Arithmetic",
			Category: "Math",
			Questions: []domain.Question{
				{ID: "q1", QuestionText: "What is 2 + 2?", Options: []string{"3", "4"}, CorrectAnswer: "4", Points: 1},
				{ID: "q2", QuestionText: "What is 3 * 3?", Options: []string{"6", "9"}, CorrectAnswer: "9", Points: 1},
			},
			CreatedAt:       base,
			AuthorizedUsers: []string{"alice"},
		},
		{
			ID:       "quiz-2",
			Title:    "Geography",
			Category: "World",
			Questions: []domain.Question{
				{ID: "g1", QuestionText: "Capital of France?", Options: []string{"Paris", "Rome"}, CorrectAnswer: "Paris", Points: 1},
			},
			CreatedAt:       base.Add(time.Hour),
			AuthorizedUsers: []string{"alice"},
		},
	}
}
