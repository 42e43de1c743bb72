package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/triviapark/livequiz/internal/livequiz"
)

// SeedDemo creates the demo admin and a sample quiz if no quizzes exist.
// Idempotent: does nothing once any quiz is present.
func SeedDemo(ctx context.Context, logger *slog.Logger, store Store) error {
	existing, err := store.ListQuizzes(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo-admin"), bcryptCost)
	if err != nil {
		return err
	}
	admin := livequiz.User{
		ID:           uuid.NewString(),
		Username:     "demo-admin",
		Email:        "admin@demo.local",
		PasswordHash: string(hash),
		Role:         livequiz.RoleAdmin,
		CreatedAt:    time.Now(),
	}
	if err := store.CreateUser(ctx, admin); err != nil && err != ErrExists {
		return err
	}

	quiz := livequiz.Quiz{
		ID:          "demo",
		Title:       "General Knowledge Warm-Up",
		Description: "A short demo quiz to try the live session flow.",
		CreatedBy:   admin.ID,
		CreatedAt:   time.Now(),
		Questions: []livequiz.Question{
			{
				Text:          "Which planet is known as the Red Planet?",
				Options:       []string{"Venus", "Mars", "Jupiter", "Mercury"},
				CorrectAnswer: "Mars",
				TimeLimit:     15,
			},
			{
				Text:          "What is the capital of Australia?",
				Options:       []string{"Sydney", "Melbourne", "Canberra", "Perth"},
				CorrectAnswer: "Canberra",
				TimeLimit:     15,
			},
			{
				Text:          "How many sides does a hexagon have?",
				Options:       []string{"5", "6", "7", "8"},
				CorrectAnswer: "6",
				TimeLimit:     10,
			},
		},
	}
	if err := store.CreateQuiz(ctx, quiz); err != nil {
		return err
	}

	logger.Info("demo admin and quiz seeded", "quiz_id", quiz.ID)
	return nil
}
