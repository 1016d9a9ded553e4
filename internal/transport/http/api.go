package http

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"quiz-session-service/internal/app"
	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/session"
)

// API serves the REST surface.
type API struct {
	quizzes *app.QuizService
	catalog *app.CatalogService
	auth    *app.AuthService
}

func NewAPI(quizzes *app.QuizService, catalog *app.CatalogService, auth *app.AuthService) *API {
	return &API{quizzes: quizzes, catalog: catalog, auth: auth}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// POST /api/auth/register
func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	user, err := a.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// POST /api/auth/login
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	token, user, err := a.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// GET /api/me
func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, user)
}

// GET /api/admin/users
func (a *API) ListUsers(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	users, err := a.auth.ListUsers(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GET /api/quizzes
func (a *API) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	list, err := a.quizzes.ListQuizzes(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GET /api/quizzes/{quizID}
// Admins receive the full quiz including the answer key; everyone else the summary.
func (a *API) GetQuiz(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	quiz, err := a.quizzes.FetchQuiz(r.Context(), user, chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if user.IsAdmin() {
		writeJSON(w, http.StatusOK, quiz)
		return
	}
	writeJSON(w, http.StatusOK, quiz.Summary())
}

// GET /api/quizzes/{quizID}/next
func (a *API) NextQuiz(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	id, err := a.quizzes.NextQuizID(r.Context(), user, chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"quizId": id})
}

// POST /api/quizzes
func (a *API) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	var draft domain.Quiz
	if err := decodeJSON(r, &draft); err != nil {
		writeError(w, err)
		return
	}
	quiz, err := a.catalog.CreateQuiz(r.Context(), user, draft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

// POST /api/quizzes/import
func (a *API) ImportQuiz(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, domain.NewValidationError("body", "unreadable"))
		return
	}
	quiz, err := a.catalog.ImportQuiz(r.Context(), user, raw)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

// PUT /api/quizzes/{quizID} appends questions.
func (a *API) AppendQuestions(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	var req struct {
		Questions []domain.Question `json:"questions"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	quiz, err := a.catalog.AppendQuestions(r.Context(), user, chi.URLParam(r, "quizID"), req.Questions)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

// PUT /api/quizzes/{quizID}/questions/{questionID}
func (a *API) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, domain.NewValidationError("body", "unreadable"))
		return
	}
	quiz, err := a.catalog.UpdateQuestion(r.Context(), user, chi.URLParam(r, "quizID"), chi.URLParam(r, "questionID"), raw)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

// PUT /api/quizzes/{quizID}/users
func (a *API) AssignUsers(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	var req struct {
		Usernames []string `json:"usernames"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	quiz, err := a.catalog.AssignUsers(r.Context(), user, chi.URLParam(r, "quizID"), req.Usernames)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

// DELETE /api/quizzes/{quizID}
func (a *API) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	if err := a.catalog.DeleteQuiz(r.Context(), user, chi.URLParam(r, "quizID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/scores
func (a *API) ListScores(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	records, err := a.quizzes.Scores(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]scoreView, 0, len(records))
	for _, rec := range records {
		out = append(out, newScoreView(rec, a.quizzes.Options()))
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /api/quizzes/{quizID}/attempts
func (a *API) StartAttempt(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	attempt, err := a.quizzes.StartAttempt(r.Context(), user, chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAttemptView(attempt, a.quizzes.Options()))
}

// GET /api/attempts/{attemptID}
func (a *API) GetAttempt(w http.ResponseWriter, r *http.Request) {
	a.attemptAction(w, r, a.quizzes.GetAttempt)
}

// POST /api/attempts/{attemptID}/answer
func (a *API) SelectAnswer(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	var req struct {
		Option string `json:"option"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	attempt, _, err := a.quizzes.SelectAnswer(r.Context(), user, chi.URLParam(r, "attemptID"), req.Option)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAttemptView(attempt, a.quizzes.Options()))
}

// POST /api/attempts/{attemptID}/advance
func (a *API) Advance(w http.ResponseWriter, r *http.Request) {
	a.attemptAction(w, r, a.quizzes.Advance)
}

// POST /api/attempts/{attemptID}/retake
func (a *API) Retake(w http.ResponseWriter, r *http.Request) {
	a.attemptAction(w, r, a.quizzes.Retake)
}

// POST /api/attempts/{attemptID}/next
func (a *API) StartNext(w http.ResponseWriter, r *http.Request) {
	a.attemptAction(w, r, a.quizzes.StartNext)
}

// POST /api/attempts/{attemptID}/restart
func (a *API) Restart(w http.ResponseWriter, r *http.Request) {
	a.attemptAction(w, r, a.quizzes.Restart)
}

// POST /api/attempts/{attemptID}/submit
func (a *API) Submit(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	record, err := a.quizzes.Submit(r.Context(), user, chi.URLParam(r, "attemptID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newScoreView(record, a.quizzes.Options()))
}

func (a *API) attemptAction(w http.ResponseWriter, r *http.Request, fn func(context.Context, domain.User, string) (session.Attempt, error)) {
	user, _ := UserFromContext(r.Context())
	attempt, err := fn(r.Context(), user, chi.URLParam(r, "attemptID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAttemptView(attempt, a.quizzes.Options()))
}
