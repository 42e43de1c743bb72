package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"github.com/triviapark/livequiz/internal/game"
	"github.com/triviapark/livequiz/internal/livequiz"
)

// gameIntent is an inbound client message on the game socket. Action names
// match the reference client protocol.
type gameIntent struct {
	Action   string `json:"action"`
	QuizID   string `json:"quizId"`
	Username string `json:"username"`
	Answer   string `json:"answer"`
}

const (
	actionJoin   = "joinQuiz"
	actionStart  = "startQuiz"
	actionAnswer = "submitAnswer"
)

// quizLookup adapts the store to the game core's lookup contract.
func quizLookup(store Store) game.QuizLookup {
	return func(ctx context.Context, quizID string) (livequiz.Quiz, error) {
		q, err := store.GetQuiz(ctx, quizID)
		if errors.Is(err, ErrNotFound) {
			return livequiz.Quiz{}, game.ErrQuizNotFound
		}
		return q, err
	}
}

// handleGameSocket binds one websocket connection to at most one live
// session. A reader goroutine decodes intents; this handler owns the socket
// writer, multiplexing intents, broker events and pings. Closing the socket
// removes the participant from its session.
func handleGameSocket(logger *slog.Logger, registry *game.Registry, broker *game.Broker, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("game socket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()
		connID := uuid.NewString()
		lookup := quizLookup(store)

		intents := make(chan gameIntent)
		go func() {
			defer close(intents)
			for {
				_, buf, err := conn.Read(ctx)
				if err != nil {
					logger.Debug("game socket read ended", "conn_id", connID, "error", err)
					return
				}
				var in gameIntent
				if err := json.Unmarshal(buf, &in); err != nil {
					logger.Debug("game socket: malformed message", "conn_id", connID, "error", err)
					continue
				}
				select {
				case intents <- in:
				case <-ctx.Done():
					return
				}
			}
		}()

		var (
			sessionID string
			sub       chan []byte
		)
		defer func() {
			if sessionID == "" {
				return
			}
			if s, ok := registry.Get(sessionID); ok {
				s.Leave(connID)
			}
			broker.Unsubscribe(sessionID, sub)
		}()

		write := func(buf []byte) error {
			wctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return conn.Write(wctx, websocket.MessageText, buf)
		}
		writeEvent := func(event string, data any) error {
			buf, err := json.Marshal(game.Envelope{Event: event, Data: data})
			if err != nil {
				return err
			}
			return write(buf)
		}

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ping.C:
				if err := conn.Ping(ctx); err != nil {
					return
				}
			case buf := <-sub: // nil until joined; a nil channel never fires
				if err := write(buf); err != nil {
					return
				}
			case in, ok := <-intents:
				if !ok {
					return
				}
				switch in.Action {
				case actionJoin:
					in.Username = strings.TrimSpace(in.Username)
					if in.QuizID == "" || in.Username == "" {
						writeEvent(game.EventError, "quizId and username are required")
						continue
					}
					if sessionID != "" && in.QuizID != sessionID {
						writeEvent(game.EventError, "already joined a quiz")
						continue
					}
					sess, err := registry.GetOrCreate(ctx, in.QuizID, lookup)
					if errors.Is(err, game.ErrQuizNotFound) {
						writeEvent(game.EventError, "Quiz not found")
						continue
					}
					if err != nil {
						logger.Error("game socket: resolving quiz", "quiz_id", in.QuizID, "error", err)
						writeEvent(game.EventError, "Failed to join quiz")
						continue
					}
					if sessionID == "" {
						sessionID = in.QuizID
						sub = broker.Subscribe(sessionID)
					}
					if snapshot := sess.Join(connID, in.Username); snapshot != nil {
						if err := writeEvent(game.EventQuestionUpdate, snapshot); err != nil {
							return
						}
					}
				case actionStart:
					id := in.QuizID
					if id == "" {
						id = sessionID
					}
					if s, ok := registry.Get(id); ok {
						s.Start()
					}
				case actionAnswer:
					if sessionID == "" {
						continue
					}
					if s, ok := registry.Get(sessionID); ok {
						s.SubmitAnswer(connID, in.Answer)
					}
				default:
					writeEvent(game.EventError, "unknown action")
				}
			}
		}
	}
}
