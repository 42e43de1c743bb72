// Package livequiz defines the core domain types shared across the service.
package livequiz

import "time"

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type Quiz struct {
	ID          string
	Title       string
	Description string
	Questions   []Question
	CreatedBy   string
	CreatedAt   time.Time
}

// Question is a single-correct-answer multiple choice question. TimeLimit is
// the answering window in seconds.
type Question struct {
	Text          string
	Options       []string
	CorrectAnswer string
	TimeLimit     int
}

// DefaultTimeLimit applies to stored questions with no explicit limit.
const DefaultTimeLimit = 15
