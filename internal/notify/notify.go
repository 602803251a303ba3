// Package notify holds the user-facing notification queue.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level classifies a notification.
type Level string

const (
	Success Level = "success"
	Error   Level = "error"
	Info    Level = "info"
)

// Notification is one plain-text message shown to the user.
type Notification struct {
	ID      uuid.UUID
	Level   Level
	Message string
	At      time.Time
}

// Sink receives notifications from the pollers and actions.
type Sink interface {
	Notify(level Level, message string)
}

// Queue is a bounded, expiring Sink.
type Queue struct {
	mu    sync.Mutex
	items []Notification
	fresh []Notification
	max   int
	ttl   time.Duration
	now   func() time.Time
}

// NewQueue creates a queue whose entries expire after ttl.
func NewQueue(ttl time.Duration) *Queue {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Queue{max: 5, ttl: ttl, now: time.Now}
}

// TTL returns how long a notification stays visible.
func (q *Queue) TTL() time.Duration { return q.ttl }

// Notify implements Sink.
func (q *Queue) Notify(level Level, message string) {
	q.Push(level, message)
}

// Push adds a notification and returns it.
func (q *Queue) Push(level Level, message string) Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := Notification{ID: uuid.New(), Level: level, Message: message, At: q.now()}
	q.items = append(q.items, n)
	if len(q.items) > q.max {
		q.items = append([]Notification(nil), q.items[len(q.items)-q.max:]...)
	}
	q.fresh = append(q.fresh, n)
	return n
}

// Drain returns notifications pushed since the last call, so the caller can
// schedule their dismissal.
func (q *Queue) Drain() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.fresh
	q.fresh = nil
	return out
}

// Dismiss removes the notification with id.
func (q *Queue) Dismiss(id uuid.UUID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, n := range q.items {
		if n.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

// Active returns the visible notifications, oldest first.
func (q *Queue) Active() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Notification(nil), q.items...)
}
