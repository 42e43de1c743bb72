package server

import (
	"context"
	"errors"

	"github.com/triviapark/livequiz/internal/livequiz"
)

var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
)

// Store is the persistence surface the handlers depend on. The live game
// core consumes only GetQuiz, adapted through game.QuizLookup.
type Store interface {
	CreateUser(ctx context.Context, u livequiz.User) error
	UserByEmail(ctx context.Context, email string) (livequiz.User, error)
	UserByID(ctx context.Context, id string) (livequiz.User, error)

	CreateQuiz(ctx context.Context, q livequiz.Quiz) error
	ListQuizzes(ctx context.Context) ([]livequiz.Quiz, error)
	GetQuiz(ctx context.Context, id string) (livequiz.Quiz, error)
	DeleteQuiz(ctx context.Context, id string) error
}
