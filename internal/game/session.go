package game

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/triviapark/livequiz/internal/livequiz"
)

// ErrQuizNotFound is returned by QuizLookup implementations when the session
// identifier does not resolve to a stored quiz.
var ErrQuizNotFound = errors.New("quiz not found")

// QuizLookup resolves a quiz by ID. The storage layer provides the
// implementation; the core never touches persistence directly.
type QuizLookup func(ctx context.Context, quizID string) (livequiz.Quiz, error)

// scoreIncrement is the fixed amount awarded per correct answer.
const scoreIncrement = 10

type player struct {
	connID string
	name   string
	score  int
	// scoredAt is the question index this player last scored on (-1 before
	// any). A player scores at most once per question.
	scoredAt int
}

// Session is the runtime for one live quiz session. Every state transition
// happens under mu; broadcasts go through the broker with non-blocking
// sends, so a slow connection never stalls the session.
type Session struct {
	id     string
	quiz   livequiz.Quiz
	broker *Broker
	logger *slog.Logger

	mu      sync.Mutex
	players []*player
	started bool
	closed  bool
	current int
	timer   *RoundTimer

	onClose func(sessionID string)
}

func newSession(id string, quiz livequiz.Quiz, broker *Broker, clock clockwork.Clock, logger *slog.Logger, onClose func(string)) *Session {
	return &Session{
		id:      id,
		quiz:    quiz,
		broker:  broker,
		logger:  logger,
		timer:   NewRoundTimer(clock),
		onClose: onClose,
	}
}

// Join adds a participant and broadcasts the updated roster. Joining again
// with the same connection ID does not add a second seat. If the quiz is
// already in progress, Join returns a catch-up snapshot of the current
// question with the remaining time, for delivery to the joining connection
// only; otherwise it returns nil.
func (s *Session) Join(connID, username string) *QuestionPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if s.find(connID) == nil {
		s.players = append(s.players, &player{connID: connID, name: username, scoredAt: -1})
	}
	s.broadcastRosterLocked(EventPlayersUpdate)

	if !s.started || s.current >= len(s.quiz.Questions) {
		return nil
	}
	q := s.quiz.Questions[s.current]
	remaining := q.TimeLimit - int(s.timer.Elapsed()/time.Second)
	if remaining < 0 {
		remaining = 0
	}
	return &QuestionPayload{
		Text:           q.Text,
		Options:        q.Options,
		TimeLimit:      remaining,
		IsLastQuestion: s.isLastLocked(),
	}
}

// Start begins the question sequence. It is a no-op unless the session has
// at least one participant and has not started, so duplicate or late start
// signals are tolerated.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed || len(s.players) == 0 {
		return
	}
	s.started = true
	s.current = 0
	s.logger.Info("session started", "session_id", s.id, "questions", len(s.quiz.Questions))
	s.askLocked()
}

// SubmitAnswer scores the answer against the question open at the moment of
// the call. Unknown connections, sessions not in progress, wrong answers,
// and repeat correct answers for the same question are silent no-ops. A
// correct answer adds the fixed increment and broadcasts the score-ordered
// roster.
func (s *Session) SubmitAnswer(connID, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.closed || s.current >= len(s.quiz.Questions) {
		return
	}
	p := s.find(connID)
	if p == nil {
		return
	}
	q := s.quiz.Questions[s.current]
	if answer != q.CorrectAnswer || p.scoredAt == s.current {
		return
	}
	p.score += scoreIncrement
	p.scoredAt = s.current
	s.broadcastRosterLocked(EventScoreUpdate)
}

// Leave removes the participant, if present, and broadcasts the roster.
// When the last participant leaves, the session is torn down regardless of
// progress; partially played sessions are not resumable.
func (s *Session) Leave(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	idx := -1
	for i, p := range s.players {
		if p.connID == connID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	s.players = append(s.players[:idx], s.players[idx+1:]...)
	if len(s.players) == 0 {
		s.logger.Info("session emptied", "session_id", s.id)
		s.closeLocked(false)
		return
	}
	s.broadcastRosterLocked(EventPlayersUpdate)
}

// advance is invoked by the round timer only. gen rejects fires from
// countdowns that were superseded or cancelled while the callback was
// already in flight.
func (s *Session) advance(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.timer.Live(gen) {
		return
	}
	s.current++
	if s.current >= len(s.quiz.Questions) {
		s.logger.Info("session ended", "session_id", s.id, "players", len(s.players))
		s.closeLocked(true)
		return
	}
	s.askLocked()
}

// askLocked broadcasts the current question and arms its countdown.
func (s *Session) askLocked() {
	q := s.quiz.Questions[s.current]
	s.broker.Publish(s.id, EventQuestionUpdate, QuestionPayload{
		Text:           q.Text,
		Options:        q.Options,
		TimeLimit:      q.TimeLimit,
		IsLastQuestion: s.isLastLocked(),
	})
	s.timer.Arm(time.Duration(q.TimeLimit)*time.Second, s.advance)
}

// closeLocked ends the session, cancels any pending countdown, and removes
// the session from its registry.
func (s *Session) closeLocked(broadcastEnd bool) {
	s.closed = true
	s.timer.Cancel()
	if broadcastEnd {
		s.broker.Publish(s.id, EventQuizEnd, s.rosterLocked())
	}
	if s.onClose != nil {
		s.onClose(s.id)
	}
}

// rosterLocked returns the roster sorted by score descending; ties keep join
// order. Computed at broadcast time, never stored.
func (s *Session) rosterLocked() []RosterEntry {
	entries := make([]RosterEntry, 0, len(s.players))
	for _, p := range s.players {
		entries = append(entries, RosterEntry{Username: p.name, Score: p.score})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}

func (s *Session) broadcastRosterLocked(event string) {
	s.broker.Publish(s.id, event, s.rosterLocked())
}

func (s *Session) isLastLocked() bool {
	return s.current+1 >= len(s.quiz.Questions)
}

func (s *Session) find(connID string) *player {
	for _, p := range s.players {
		if p.connID == connID {
			return p
		}
	}
	return nil
}

// Ended reports whether the session has been torn down.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
