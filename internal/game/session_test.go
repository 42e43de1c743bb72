package game

import (
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/triviapark/livequiz/internal/livequiz"
)

func testQuiz() livequiz.Quiz {
	return livequiz.Quiz{
		ID:    "capitals",
		Title: "Capitals",
		Questions: []livequiz.Question{
			{Text: "Capital of France?", Options: []string{"Paris", "Rome", "Berlin"}, CorrectAnswer: "Paris", TimeLimit: 15},
			{Text: "Capital of Peru?", Options: []string{"Lima", "Quito", "Bogota"}, CorrectAnswer: "Lima", TimeLimit: 10},
		},
	}
}

type sessionHarness struct {
	session *Session
	broker  *Broker
	clock   *clockwork.FakeClock
	events  chan []byte
	removed chan string
}

func newHarness(t *testing.T) *sessionHarness {
	t.Helper()
	broker := NewBroker()
	clock := clockwork.NewFakeClock()
	removed := make(chan string, 1)

	quiz := testQuiz()
	s := newSession(quiz.ID, quiz, broker, clock, slog.Default(), func(id string) {
		removed <- id
	})
	return &sessionHarness{
		session: s,
		broker:  broker,
		clock:   clock,
		events:  broker.Subscribe(quiz.ID),
		removed: removed,
	}
}

// recvEvent waits for the next broadcast and decodes its payload into v.
func (h *sessionHarness) recvEvent(t *testing.T, v any) string {
	t.Helper()
	select {
	case buf := <-h.events:
		var env struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(buf, &env); err != nil {
			t.Fatalf("decoding envelope: %v", err)
		}
		if v != nil {
			if err := json.Unmarshal(env.Data, v); err != nil {
				t.Fatalf("decoding %s payload: %v", env.Event, err)
			}
		}
		return env.Event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return ""
	}
}

func (h *sessionHarness) expectNoEvent(t *testing.T) {
	t.Helper()
	select {
	case buf := <-h.events:
		t.Fatalf("unexpected event: %s", buf)
	default:
	}
}

// fireRound advances the fake clock past the open question's countdown,
// waiting for the timer to be registered first.
func (h *sessionHarness) fireRound(t *testing.T, seconds int) {
	t.Helper()
	h.clock.BlockUntil(1)
	h.clock.Advance(time.Duration(seconds) * time.Second)
}

func TestJoinBroadcastsRoster(t *testing.T) {
	h := newHarness(t)

	h.session.Join("c1", "ana")
	var roster []RosterEntry
	if event := h.recvEvent(t, &roster); event != EventPlayersUpdate {
		t.Fatalf("event = %q, want %q", event, EventPlayersUpdate)
	}
	if len(roster) != 1 || roster[0].Username != "ana" || roster[0].Score != 0 {
		t.Errorf("roster = %v, want [ana 0]", roster)
	}

	h.session.Join("c2", "bruno")
	h.recvEvent(t, &roster)
	if len(roster) != 2 {
		t.Errorf("roster size = %d, want 2", len(roster))
	}
}

func TestJoinSameConnectionTwice(t *testing.T) {
	h := newHarness(t)

	h.session.Join("c1", "ana")
	h.recvEvent(t, nil)

	// Same connection again: roster is rebroadcast but no second seat.
	h.session.Join("c1", "ana")
	var roster []RosterEntry
	h.recvEvent(t, &roster)
	if len(roster) != 1 {
		t.Errorf("roster size = %d, want 1", len(roster))
	}
}

func TestStartAsksFirstQuestion(t *testing.T) {
	h := newHarness(t)
	h.session.Join("c1", "ana")
	h.recvEvent(t, nil)

	h.session.Start()

	var q QuestionPayload
	if event := h.recvEvent(t, &q); event != EventQuestionUpdate {
		t.Fatalf("event = %q, want %q", event, EventQuestionUpdate)
	}
	if q.Text != "Capital of France?" {
		t.Errorf("text = %q", q.Text)
	}
	if q.TimeLimit != 15 {
		t.Errorf("timeLimit = %d, want 15", q.TimeLimit)
	}
	if q.IsLastQuestion {
		t.Error("first of two questions flagged as last")
	}
}

func TestStartWithoutPlayersIsIgnored(t *testing.T) {
	h := newHarness(t)

	h.session.Start()
	h.expectNoEvent(t)

	// A later join still sees a waiting session, not one in progress.
	if snapshot := h.session.Join("c1", "ana"); snapshot != nil {
		t.Errorf("join returned catch-up snapshot %v for unstarted session", snapshot)
	}
}

func TestDuplicateStartIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.session.Join("c1", "ana")
	h.recvEvent(t, nil)

	h.session.Start()
	h.recvEvent(t, nil)

	h.session.Start()
	h.expectNoEvent(t)
}

func TestScoringOncePerQuestion(t *testing.T) {
	h := newHarness(t)
	h.session.Join("c1", "ana")
	h.recvEvent(t, nil)
	h.session.Join("c2", "bruno")
	h.recvEvent(t, nil)
	h.session.Start()
	h.recvEvent(t, nil)

	h.session.SubmitAnswer("c1", "Paris")
	var roster []RosterEntry
	if event := h.recvEvent(t, &roster); event != EventScoreUpdate {
		t.Fatalf("event = %q, want %q", event, EventScoreUpdate)
	}
	if roster[0].Username != "ana" || roster[0].Score != 10 {
		t.Errorf("roster = %v, want ana first with 10", roster)
	}

	// Repeat correct answer for the same question is a no-op.
	h.session.SubmitAnswer("c1", "Paris")
	h.expectNoEvent(t)

	// Wrong answers and unknown connections are no-ops.
	h.session.SubmitAnswer("c2", "Rome")
	h.session.SubmitAnswer("ghost", "Paris")
	h.expectNoEvent(t)
}

func TestAnswersBeforeStartAreIgnored(t *testing.T) {
	h := newHarness(t)
	h.session.Join("c1", "ana")
	h.recvEvent(t, nil)

	h.session.SubmitAnswer("c1", "Paris")
	h.expectNoEvent(t)
}

func TestTimerAdvancesThroughQuiz(t *testing.T) {
	h := newHarness(t)
	h.session.Join("c1", "ana")
	h.recvEvent(t, nil)
	h.session.Join("c2", "bruno")
	h.recvEvent(t, nil)
	h.session.Start()
	h.recvEvent(t, nil)

	h.session.SubmitAnswer("c2", "Paris")
	h.recvEvent(t, nil)

	// First countdown expires; second question goes out.
	h.fireRound(t, 15)
	var q QuestionPayload
	if event := h.recvEvent(t, &q); event != EventQuestionUpdate {
		t.Fatalf("event = %q, want %q", event, EventQuestionUpdate)
	}
	if q.Text != "Capital of Peru?" {
		t.Errorf("text = %q", q.Text)
	}
	if !q.IsLastQuestion {
		t.Error("second of two questions not flagged as last")
	}

	// An answer scored on the previous question does not carry over.
	h.session.SubmitAnswer("c2", "Lima")
	var roster []RosterEntry
	h.recvEvent(t, &roster)
	if roster[0].Username != "bruno" || roster[0].Score != 20 {
		t.Errorf("roster = %v, want bruno first with 20", roster)
	}

	// Last countdown expires; final standings go out and the session closes.
	h.fireRound(t, 10)
	if event := h.recvEvent(t, &roster); event != EventQuizEnd {
		t.Fatalf("event = %q, want %q", event, EventQuizEnd)
	}
	if roster[0].Username != "bruno" || roster[1].Username != "ana" {
		t.Errorf("final roster = %v, want bruno before ana", roster)
	}

	select {
	case id := <-h.removed:
		if id != "capitals" {
			t.Errorf("removed session %q", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("session did not remove itself after ending")
	}
	if !h.session.Ended() {
		t.Error("session not marked ended")
	}
}

func TestRosterTiesKeepJoinOrder(t *testing.T) {
	h := newHarness(t)
	h.session.Join("c1", "ana")
	h.recvEvent(t, nil)
	h.session.Join("c2", "bruno")
	h.recvEvent(t, nil)
	h.session.Start()
	h.recvEvent(t, nil)

	h.session.SubmitAnswer("c1", "Paris")
	h.recvEvent(t, nil)
	h.session.SubmitAnswer("c2", "Paris")

	var roster []RosterEntry
	h.recvEvent(t, &roster)
	if roster[0].Username != "ana" || roster[1].Username != "bruno" {
		t.Errorf("tied roster = %v, want join order preserved", roster)
	}
}

func TestLateJoinCatchUp(t *testing.T) {
	h := newHarness(t)
	h.session.Join("c1", "ana")
	h.recvEvent(t, nil)
	h.session.Start()
	h.recvEvent(t, nil)

	h.clock.BlockUntil(1)
	h.clock.Advance(3 * time.Second)

	snapshot := h.session.Join("c2", "bruno")
	h.recvEvent(t, nil) // roster update for the join
	if snapshot == nil {
		t.Fatal("late join returned no catch-up snapshot")
	}
	if snapshot.Text != "Capital of France?" {
		t.Errorf("snapshot text = %q", snapshot.Text)
	}
	if snapshot.TimeLimit != 12 {
		t.Errorf("snapshot remaining = %d, want 12", snapshot.TimeLimit)
	}
}

func TestLastLeaveTearsDownSession(t *testing.T) {
	h := newHarness(t)
	h.session.Join("c1", "ana")
	h.recvEvent(t, nil)
	h.session.Start()
	h.recvEvent(t, nil)

	h.session.Leave("c1")

	select {
	case <-h.removed:
	case <-time.After(2 * time.Second):
		t.Fatal("emptied session did not remove itself")
	}
	if !h.session.Ended() {
		t.Error("session not marked ended")
	}
	// Abandonment is silent: no final standings broadcast.
	h.expectNoEvent(t)

	// The countdown is dead; advancing the clock must not publish anything.
	h.clock.Advance(time.Minute)
	time.Sleep(50 * time.Millisecond)
	h.expectNoEvent(t)
}

func TestLeaveBroadcastsRoster(t *testing.T) {
	h := newHarness(t)
	h.session.Join("c1", "ana")
	h.recvEvent(t, nil)
	h.session.Join("c2", "bruno")
	h.recvEvent(t, nil)

	h.session.Leave("c1")
	var roster []RosterEntry
	if event := h.recvEvent(t, &roster); event != EventPlayersUpdate {
		t.Fatalf("event = %q, want %q", event, EventPlayersUpdate)
	}
	if len(roster) != 1 || roster[0].Username != "bruno" {
		t.Errorf("roster = %v, want only bruno", roster)
	}

	// Unknown connection: nothing happens.
	h.session.Leave("ghost")
	h.expectNoEvent(t)
}
