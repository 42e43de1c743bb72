package game

import (
	"encoding/json"
	"sync"
)

// Broker is an in-process pub/sub for session events, keyed by session ID.
// Delivery is best-effort per subscriber: a slow or gone subscriber never
// blocks the publisher or the other subscribers.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for the
// given session.
func (b *Broker) Subscribe(sessionID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan []byte]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the session's subscribers.
func (b *Broker) Unsubscribe(sessionID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[sessionID], ch)
	if len(b.subs[sessionID]) == 0 {
		delete(b.subs, sessionID)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the given session. The
// envelope is marshaled once.
func (b *Broker) Publish(sessionID, event string, data any) {
	buf, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return
	}
	b.mu.RLock()
	for ch := range b.subs[sessionID] {
		select {
		case ch <- buf:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
