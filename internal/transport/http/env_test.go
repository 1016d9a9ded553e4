package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/infra/memory"
	"quiz-session-service/internal/session"
)

type testEnv struct {
	server     *httptest.Server
	adminToken string
	userToken  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	store := memory.NewQuizStore(testQuizzes()...)
	quizRepo := memory.NewQuizRepository(store, time.Minute)
	scores := memory.NewScoreStore()
	quizzes := app.NewQuizService(memory.NewAttemptStore(), quizRepo, store, scores,
		session.NewDeriverWithSource(rand.NewSource(7)), session.DefaultOptions())
	catalog := app.NewCatalogService(store, quizRepo, scores)
	auth := app.NewAuthService(memory.NewUserStore(), "test-secret", time.Hour)

	admin, _, err := auth.EnsureAdmin(ctx, "admin", "admin123")
	if err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	alice, err := auth.Register(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	adminToken, _ := auth.IssueToken(admin)
	userToken, _ := auth.IssueToken(alice)

	server := httptest.NewServer(NewRouter(NewAPI(quizzes, catalog, auth), NewWSHandler(quizzes), auth, nil))
	t.Cleanup(server.Close)
	return &testEnv{server: server, adminToken: adminToken, userToken: userToken}
}

// do sends body as JSON and returns the status and raw response.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

// answerKey maps question IDs of the fixtures to their correct option.
var answerKey = map[string]string{
	"q1": "4",
	"q2": "9",
	"g1": "Paris",
	"s1": "yes",
}

func testQuizzes() []domain.Quiz {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Quiz{
		{
			ID:       "quiz-1",
			Title:    "Arithmetic",
			Category: "Math",
			Questions: []domain.Question{
				{ID: "q1", QuestionText: "What is 2 + 2?", Options: []string{"3", "4"}, CorrectAnswer: "4", Explanation: "Two pairs.", Points: 1},
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
				{ID: "g1", QuestionText: "Capital of France?", Options: []string{"Paris", "Rome"}, CorrectAnswer: "Paris", Points: 2},
			},
			CreatedAt:       base.Add(time.Hour),
			AuthorizedUsers: []string{"alice"},
		},
		{
			ID:       "quiz-3",
			Title:    "Staff only",
			Category: "Internal",
			Questions: []domain.Question{
				{ID: "s1", QuestionText: "Is this hidden?", Options: []string{"yes", "no"}, CorrectAnswer: "yes", Points: 1},
			},
			CreatedAt: base.Add(2 * time.Hour),
		},
	}
}
