// Package events publishes an audit trail of confirmed console mutations.
// Publishing never blocks a workflow and never changes its outcome.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event describes one finished mutation workflow
type Event struct {
	ID       string    `json:"id"`
	Entity   string    `json:"entity"`
	Op       string    `json:"op"`
	RecordID string    `json:"recordId"`
	Outcome  string    `json:"outcome"`
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}

// NewEvent stamps an event with a fresh id and the current time
func NewEvent(entity, op, recordID, outcome string, err error) Event {
	e := Event{
		ID:       uuid.NewString(),
		Entity:   entity,
		Op:       op,
		RecordID: recordID,
		Outcome:  outcome,
		At:       time.Now().UTC(),
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// Publisher hands events to the audit sink
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type nopPublisher struct{}

// NewNop returns a publisher that drops every event
func NewNop() Publisher { return nopPublisher{} }

func (nopPublisher) Publish(context.Context, Event) error { return nil }
func (nopPublisher) Close() error                        { return nil }

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish appends e
func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Close does nothing
func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
