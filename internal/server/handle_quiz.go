package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/triviapark/livequiz/internal/livequiz"
)

// QuizRequest is the request body for POST /api/quizzes.
type QuizRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Questions   []QuestionRequest `json:"questions"`
}

type QuestionRequest struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	TimeLimit     int      `json:"timeLimit"`
}

// QuizResponse is the public quiz shape. Correct answers stay server-side;
// players only ever see them resolved through the live session.
type QuizResponse struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Questions   []QuestionResponse `json:"questions"`
	CreatedBy   string             `json:"createdBy"`
}

type QuestionResponse struct {
	Text      string   `json:"text"`
	Options   []string `json:"options"`
	TimeLimit int      `json:"timeLimit"`
}

func handleCreateQuiz(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req QuizRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Title = strings.TrimSpace(req.Title)
		if req.Title == "" || len(req.Questions) == 0 {
			writeError(w, http.StatusBadRequest, "title and questions are required")
			return
		}

		q := livequiz.Quiz{
			ID:          uuid.NewString(),
			Title:       req.Title,
			Description: req.Description,
			CreatedBy:   userFrom(r).ID,
			CreatedAt:   time.Now(),
		}
		for _, question := range req.Questions {
			if strings.TrimSpace(question.Text) == "" || question.CorrectAnswer == "" || len(question.Options) < 2 {
				writeError(w, http.StatusBadRequest, "each question needs text, at least two options and a correct answer")
				return
			}
			if question.TimeLimit < 0 {
				writeError(w, http.StatusBadRequest, "timeLimit must not be negative")
				return
			}
			if question.TimeLimit == 0 {
				question.TimeLimit = livequiz.DefaultTimeLimit
			}
			q.Questions = append(q.Questions, livequiz.Question(question))
		}

		if err := store.CreateQuiz(r.Context(), q); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, quizResponse(q))
	}
}

func handleListQuizzes(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizzes, err := store.ListQuizzes(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := make([]QuizResponse, 0, len(quizzes))
		for _, q := range quizzes {
			resp = append(resp, quizResponse(q))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleGetQuiz(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := store.GetQuiz(r.Context(), chi.URLParam(r, "quizID"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "quiz not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, quizResponse(q))
	}
}

func handleDeleteQuiz(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.DeleteQuiz(r.Context(), chi.URLParam(r, "quizID"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "quiz not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "quiz deleted"})
	}
}

func quizResponse(q livequiz.Quiz) QuizResponse {
	resp := QuizResponse{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		Questions:   make([]QuestionResponse, 0, len(q.Questions)),
		CreatedBy:   q.CreatedBy,
	}
	for _, question := range q.Questions {
		resp.Questions = append(resp.Questions, QuestionResponse{
			Text:      question.Text,
			Options:   question.Options,
			TimeLimit: question.TimeLimit,
		})
	}
	return resp
}
