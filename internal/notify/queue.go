// Package notify holds the single user facing notification slot.
package notify

import (
	"sync"

	"github.com/Dhoini/customer-console/pkg/logger"
)

// Severity of a notification
type Severity string

const (
	Success Severity = "success"
	Warning Severity = "warning"
	Error   Severity = "error"
)

// Notification is what presentation shows in its snackbar
type Notification struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Visible  bool     `json:"visible"`
}

// Subscriber is called with the new state after every change
type Subscriber func(Notification)

// Queue is a single slot: a new notification replaces the current one.
// Auto dismiss timing belongs to presentation.
type Queue struct {
	mu        sync.Mutex
	current   Notification
	shown     int
	subscribe Subscriber
	log       *logger.Logger
}

// NewQueue creates an empty, invisible queue
func NewQueue(log *logger.Logger) *Queue {
	return &Queue{log: log}
}

// Subscribe installs fn as the only subscriber; nil removes it
func (q *Queue) Subscribe(fn Subscriber) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.subscribe = fn
}

// Show replaces the current notification and makes it visible
func (q *Queue) Show(message string, severity Severity) {
	q.mu.Lock()
	q.current = Notification{Message: message, Severity: severity, Visible: true}
	q.shown++
	n, fn := q.current, q.subscribe
	q.mu.Unlock()

	q.log.Debugw("Notification shown", "severity", severity, "message", message)
	if fn != nil {
		fn(n)
	}
}

// Success shows a success notification
func (q *Queue) Success(message string) { q.Show(message, Success) }

// Warning shows a warning notification
func (q *Queue) Warning(message string) { q.Show(message, Warning) }

// Error shows an error notification
func (q *Queue) Error(message string) { q.Show(message, Error) }

// Dismiss hides the notification but keeps its text. Dismissing an
// invisible notification does nothing.
func (q *Queue) Dismiss() {
	q.mu.Lock()
	if !q.current.Visible {
		q.mu.Unlock()
		return
	}
	q.current.Visible = false
	n, fn := q.current, q.subscribe
	q.mu.Unlock()

	if fn != nil {
		fn(n)
	}
}

// Current returns the notification in the slot
func (q *Queue) Current() Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current
}

// Shown counts every Show since the queue was created
func (q *Queue) Shown() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.shown
}
