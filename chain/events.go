package chain

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Event is one finalized-transaction notification from the chain
// gateway. Error carries a decoded `section.name` dispatch error when
// the transaction was included but rejected.
type Event struct {
	TxHash  string            `json:"tx_hash"`
	Section string            `json:"section"`
	Method  string            `json:"method"`
	Error   string            `json:"error,omitempty"`
	Data    map[string]string `json:"data,omitempty"`
}

// EventStream subscribes to the gateway's websocket feed and routes
// each event to the single waiter registered for its transaction hash.
// A waiter is resolved at most once and removed on every exit path:
// delivery, cancellation, or stream shutdown.
type EventStream struct {
	url string
	log *logrus.Logger

	mu      sync.Mutex
	waiters map[string]chan Event
}

func NewEventStream(wsURL string, log *logrus.Logger) *EventStream {
	return &EventStream{
		url:     wsURL,
		log:     log,
		waiters: make(map[string]chan Event),
	}
}

// Register installs a waiter for txHash before the transaction is
// submitted, so the confirmation cannot race past the subscriber. The
// returned cancel func is safe to call after delivery.
func (s *EventStream) Register(txHash string) (<-chan Event, func()) {
	ch := make(chan Event, 1)
	s.mu.Lock()
	s.waiters[txHash] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.waiters, txHash)
		s.mu.Unlock()
	}
	return ch, cancel
}

// Deliver resolves the waiter for ev.TxHash, if any. Events for
// transactions nobody is waiting on are dropped; the chain is the
// source of truth and unclaimed events carry no local state.
func (s *EventStream) Deliver(ev Event) {
	s.mu.Lock()
	ch, ok := s.waiters[ev.TxHash]
	if ok {
		delete(s.waiters, ev.TxHash)
	}
	s.mu.Unlock()

	if ok {
		ch <- ev
	}
}

// Run maintains the websocket subscription until ctx is cancelled,
// reconnecting with a flat backoff on read or dial failure.
func (s *EventStream) Run(ctx context.Context) {
	for {
		if err := s.readLoop(ctx); err != nil {
			if ctx.Err() != nil {
				s.log.Info("⏹️ chain event stream stopped")
				return
			}
			s.log.Errorf("❌ chain event stream error: %v, reconnecting", err)
		}
		select {
		case <-ctx.Done():
			s.log.Info("⏹️ chain event stream stopped")
			return
		case <-time.After(3 * time.Second):
		}
	}
}

func (s *EventStream) readLoop(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "shutdown")

	s.log.Infof("🔌 subscribed to chain events at %s", s.url)

	for {
		var ev Event
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			return err
		}
		s.Deliver(ev)
	}
}
