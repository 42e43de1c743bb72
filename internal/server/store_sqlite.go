package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/triviapark/livequiz/internal/livequiz"
)

// Document types stored as JSONB in per-model tables. Schema lives in
// internal/migrations.

type userDoc struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	Role         string `json:"role"`
	CreatedAt    string `json:"createdAt"`
}

type quizDoc struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Questions   []questionDoc `json:"questions"`
	CreatedBy   string        `json:"createdBy"`
	CreatedAt   string        `json:"createdAt"`
}

type questionDoc struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	TimeLimit     int      `json:"timeLimit"`
}

// DocStore implements Store using per-model tables with JSONB data columns.
type DocStore struct {
	db *sql.DB
}

func NewDocStore(db *sql.DB) *DocStore {
	return &DocStore{db: db}
}

func (s *DocStore) CreateUser(ctx context.Context, u livequiz.User) error {
	doc := userDoc{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, data)
		VALUES (?, ?, ?, jsonb(?))
	`, u.ID, u.Username, u.Email, string(data))
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return ErrExists
	}
	return err
}

func (s *DocStore) UserByEmail(ctx context.Context, email string) (livequiz.User, error) {
	return s.userWhere(ctx, "email = ?", email)
}

func (s *DocStore) UserByID(ctx context.Context, id string) (livequiz.User, error) {
	return s.userWhere(ctx, "id = ?", id)
}

func (s *DocStore) userWhere(ctx context.Context, cond string, arg any) (livequiz.User, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT json(data) FROM users WHERE %s`, cond), arg,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return livequiz.User{}, ErrNotFound
	}
	if err != nil {
		return livequiz.User{}, err
	}

	var doc userDoc
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return livequiz.User{}, err
	}
	return userFromDoc(doc), nil
}

func (s *DocStore) CreateQuiz(ctx context.Context, q livequiz.Quiz) error {
	doc := quizDoc{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		CreatedBy:   q.CreatedBy,
		CreatedAt:   q.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	for _, question := range q.Questions {
		doc.Questions = append(doc.Questions, questionDoc(question))
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quizzes (id, data)
		VALUES (?, jsonb(?))
	`, q.ID, string(data))
	return err
}

func (s *DocStore) ListQuizzes(ctx context.Context) ([]livequiz.Quiz, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT json(data) FROM quizzes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quizzes []livequiz.Quiz
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var doc quizDoc
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, quizFromDoc(doc))
	}
	return quizzes, rows.Err()
}

func (s *DocStore) GetQuiz(ctx context.Context, id string) (livequiz.Quiz, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM quizzes WHERE id = ?`, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return livequiz.Quiz{}, ErrNotFound
	}
	if err != nil {
		return livequiz.Quiz{}, err
	}

	var doc quizDoc
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return livequiz.Quiz{}, err
	}
	return quizFromDoc(doc), nil
}

func (s *DocStore) DeleteQuiz(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func userFromDoc(doc userDoc) livequiz.User {
	created, _ := time.Parse(time.RFC3339Nano, doc.CreatedAt)
	return livequiz.User{
		ID:           doc.ID,
		Username:     doc.Username,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		Role:         livequiz.Role(doc.Role),
		CreatedAt:    created,
	}
}

func quizFromDoc(doc quizDoc) livequiz.Quiz {
	created, _ := time.Parse(time.RFC3339Nano, doc.CreatedAt)
	q := livequiz.Quiz{
		ID:          doc.ID,
		Title:       doc.Title,
		Description: doc.Description,
		CreatedBy:   doc.CreatedBy,
		CreatedAt:   created,
	}
	for _, question := range doc.Questions {
		if question.TimeLimit <= 0 {
			question.TimeLimit = livequiz.DefaultTimeLimit
		}
		q.Questions = append(q.Questions, livequiz.Question(question))
	}
	return q
}
