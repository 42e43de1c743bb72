package game

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"
)

// Registry owns all live session runtimes, keyed by session ID. Sessions
// remove themselves when they end or empty out.
type Registry struct {
	broker *Broker
	clock  clockwork.Clock
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(broker *Broker, clock clockwork.Clock, logger *slog.Logger) *Registry {
	return &Registry{
		broker:   broker,
		clock:    clock,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the runtime for sessionID, constructing one by
// resolving the quiz when absent. Exactly one runtime is created per ID even
// under concurrent callers; a losing racer discards its quiz copy.
func (r *Registry) GetOrCreate(ctx context.Context, sessionID string, lookup QuizLookup) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}

	// Resolve outside the write lock; storage I/O must not serialize the
	// registry.
	quiz, err := lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock.
	if s, ok := r.sessions[sessionID]; ok {
		return s, nil
	}

	s = newSession(sessionID, quiz, r.broker, r.clock, r.logger, r.Remove)
	r.sessions[sessionID] = s
	r.logger.Info("session created", "session_id", sessionID, "quiz", quiz.Title)
	return s, nil
}

// Get is a non-creating lookup.
func (r *Registry) Get(sessionID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	return s, ok
}

// Remove deletes the runtime for sessionID; no-op when already absent.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
}
