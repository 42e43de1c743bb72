package game

// Wire-level event names. These match the vocabulary the web client already
// speaks, so they are part of the public protocol.
const (
	EventPlayersUpdate  = "playersUpdate"
	EventQuestionUpdate = "questionUpdate"
	EventScoreUpdate    = "scoreUpdate"
	EventQuizEnd        = "quizEnd"
	EventError          = "error"
)

// Envelope wraps every outbound event.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// RosterEntry is one participant in a roster, score or end-of-quiz broadcast.
type RosterEntry struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// QuestionPayload is the question broadcast to participants. TimeLimit is in
// seconds; for catch-up snapshots it carries the remaining time rather than
// the full window.
type QuestionPayload struct {
	Text           string   `json:"text"`
	Options        []string `json:"options"`
	TimeLimit      int      `json:"timeLimit"`
	IsLastQuestion bool     `json:"isLastQuestion"`
}
