package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"quiz-session-service/internal/app"
)

// NewRouter wires the REST API, the websocket endpoint and health check.
func NewRouter(api *API, ws *WSHandler, auth *app.AuthService, corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	if len(corsOrigins) == 0 {
		corsOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	// Long-lived; must stay outside the request timeout.
	r.With(RequireUser(auth)).Get("/ws", ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Post("/auth/register", api.Register)
		r.Post("/auth/login", api.Login)

		r.Group(func(pr chi.Router) {
			pr.Use(RequireUser(auth))

			pr.Get("/me", api.Me)
			pr.Get("/scores", api.ListScores)

			pr.Get("/quizzes", api.ListQuizzes)
			pr.Get("/quizzes/{quizID}", api.GetQuiz)
			pr.Get("/quizzes/{quizID}/next", api.NextQuiz)
			pr.Post("/quizzes/{quizID}/attempts", api.StartAttempt)

			pr.Route("/attempts/{attemptID}", func(ar chi.Router) {
				ar.Get("/", api.GetAttempt)
				ar.Post("/answer", api.SelectAnswer)
				ar.Post("/advance", api.Advance)
				ar.Post("/retake", api.Retake)
				ar.Post("/next", api.StartNext)
				ar.Post("/restart", api.Restart)
				ar.Post("/submit", api.Submit)
			})

			pr.Group(func(ad chi.Router) {
				ad.Use(RequireAdmin)
				ad.Get("/admin/users", api.ListUsers)
				ad.Post("/quizzes", api.CreateQuiz)
				ad.Post("/quizzes/import", api.ImportQuiz)
				ad.Put("/quizzes/{quizID}", api.AppendQuestions)
				ad.Put("/quizzes/{quizID}/questions/{questionID}", api.UpdateQuestion)
				ad.Put("/quizzes/{quizID}/users", api.AssignUsers)
				ad.Delete("/quizzes/{quizID}", api.DeleteQuiz)
			})
		})
	})
	return r
}
