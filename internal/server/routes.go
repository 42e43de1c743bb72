package server

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/triviapark/livequiz/internal/game"
	"github.com/triviapark/livequiz/internal/livequiz"
)

func addRoutes(r chi.Router, logger *slog.Logger, store Store, registry *game.Registry, broker *game.Broker, db *sql.DB, jwtSecret []byte) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("LiveQuiz API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", handleRegister(store, jwtSecret))
		r.Post("/auth/login", handleLogin(store, jwtSecret))
		r.With(authMiddleware(store, jwtSecret)).Get("/auth/me", handleMe())

		// Quiz management: reads are public, writes need an admin token.
		r.Get("/quizzes", handleListQuizzes(store))
		r.Get("/quizzes/{quizID}", handleGetQuiz(store))
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(store, jwtSecret))
			r.Use(requireRole(livequiz.RoleAdmin))
			r.Post("/quizzes", handleCreateQuiz(store))
			r.Delete("/quizzes/{quizID}", handleDeleteQuiz(store))
		})

		// Live sessions are open to any holder of a quiz ID and a name.
		r.Get("/game/ws", handleGameSocket(logger, registry, broker, store))
	})
}
