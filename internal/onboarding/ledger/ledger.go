// Package ledger holds the append-only audit trail of a candidate workflow.
package ledger

import (
	"time"

	"github.com/google/uuid"
)

type Actor string

const (
	ActorSystem   Actor = "SYSTEM"
	ActorOperator Actor = "OPERATOR"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFail    Outcome = "FAIL"
	OutcomeInfo    Outcome = "INFO"
)

// Event is one immutable ledger entry.
type Event struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"ts"`
	Actor     Actor                  `json:"actor"`
	Type      string                 `json:"type"`
	Outcome   Outcome                `json:"outcome"`
	Details   map[string]interface{} `json:"details"`
}

// Sink receives every appended event. Publish must not block.
type Sink interface {
	Publish(Event)
}

// Ledger is an ordered event log. It is not safe for concurrent use; the
// owning workflow serializes access.
type Ledger struct {
	events []Event
	sink   Sink
	now    func() time.Time
}

// New returns a ledger seeded with events, e.g. from a restored snapshot.
func New(events []Event) *Ledger {
	l := &Ledger{now: time.Now}
	if len(events) > 0 {
		l.events = make([]Event, len(events))
		copy(l.events, events)
	}
	return l
}

// WithSink mirrors future appends to s.
func (l *Ledger) WithSink(s Sink) *Ledger {
	l.sink = s
	return l
}

// WithClock overrides the timestamp source.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Append stamps a missing id and timestamp, stores e and returns the stored copy.
func (l *Ledger) Append(e Event) Event {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now().UTC()
	}
	if e.Details == nil {
		e.Details = map[string]interface{}{}
	}
	l.events = append(l.events, e)
	if l.sink != nil {
		l.sink.Publish(e)
	}
	return e
}

// Events returns a copy of the log in insertion order.
func (l *Ledger) Events() []Event {
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Since returns a copy of the events appended after the first n.
func (l *Ledger) Since(n int) []Event {
	if n >= len(l.events) {
		return nil
	}
	if n < 0 {
		n = 0
	}
	out := make([]Event, len(l.events)-n)
	copy(out, l.events[n:])
	return out
}

func (l *Ledger) Len() int {
	return len(l.events)
}

// CountType returns how many events of the given type were appended.
func (l *Ledger) CountType(eventType string) int {
	n := 0
	for _, e := range l.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}
