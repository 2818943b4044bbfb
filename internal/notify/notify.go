// Package notify keeps the queue of transient user-facing messages.
package notify

import (
	"sort"
	"sync"
	"time"
)

// Severity of a notification
type Severity string

// Severities, named after the styles the UI renders them with
const (
	SeveritySuccess Severity = "success"
	SeverityDanger  Severity = "danger"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Default lifetimes
const (
	DefaultDuration = 5000 * time.Millisecond
	ErrorDuration   = 8000 * time.Millisecond

	// Auto asks Add to pick the lifetime from the severity: ErrorDuration
	// for danger, DefaultDuration for everything else.
	Auto time.Duration = -1
)

// lifetime resolves Auto for severity
func lifetime(severity Severity, d time.Duration) time.Duration {
	if d != Auto {
		return d
	}
	if severity == SeverityDanger {
		return ErrorDuration
	}
	return DefaultDuration
}

// Notification is a single queued message
type Notification struct {
	ID        uint64    `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Timer is the part of *time.Timer the store uses
type Timer interface {
	Stop() bool
}

// Clock schedules expiry callbacks
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Observer is told about every notification as it is queued
type Observer interface {
	ObserveNotification(n Notification)
}

// Store is a notification queue with timed auto-expiry
type Store struct {
	clock    Clock
	observer Observer

	mu            sync.Mutex
	nextID        uint64
	notifications []Notification
	timers        map[uint64]Timer
	watchers      map[int]func([]Notification)
	nextWatcher   int
	closed        bool
}

// Option configures a Store
type Option func(*Store)

// WithClock replaces the wall clock
func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithObserver reports every added notification to o
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// New creates an empty Store
func New(opts ...Option) *Store {
	s := &Store{
		clock:    realClock{},
		nextID:   1,
		timers:   make(map[uint64]Timer),
		watchers: make(map[int]func([]Notification)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add enqueues a notification and returns its id. It is removed after
// duration; Auto picks the severity's default and zero keeps it until
// Remove or Clear.
func (s *Store) Add(message string, severity Severity, title string, duration time.Duration) uint64 {
	s.mu.Lock()
	if severity == "" {
		severity = SeverityInfo
	}
	n := Notification{
		ID:        s.nextID,
		Message:   message,
		Severity:  severity,
		Title:     title,
		CreatedAt: s.clock.Now(),
	}
	s.nextID++
	s.notifications = append(s.notifications, n)

	duration = lifetime(severity, duration)
	if duration > 0 && !s.closed {
		id := n.ID
		s.timers[id] = s.clock.AfterFunc(duration, func() { s.Remove(id) })
	}
	snapshot, watchers := s.changedLocked()
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.ObserveNotification(n)
	}
	notifyWatchers(watchers, snapshot)
	return n.ID
}

// Remove deletes the notification with id. Unknown ids are ignored.
func (s *Store) Remove(id uint64) {
	s.mu.Lock()
	idx := -1
	for i, n := range s.notifications {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.notifications = append(s.notifications[:idx], s.notifications[idx+1:]...)
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	snapshot, watchers := s.changedLocked()
	s.mu.Unlock()

	notifyWatchers(watchers, snapshot)
}

// Clear empties the queue
func (s *Store) Clear() {
	s.mu.Lock()
	s.stopTimersLocked()
	s.notifications = nil
	snapshot, watchers := s.changedLocked()
	s.mu.Unlock()

	notifyWatchers(watchers, snapshot)
}

// List returns the queued notifications in insertion order
func (s *Store) List() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notification(nil), s.notifications...)
}

// Success queues a success message (default title "Success")
func (s *Store) Success(message, title string) uint64 {
	return s.Add(message, SeveritySuccess, orDefault(title, "Success"), Auto)
}

// Error queues a danger message that stays longer (default title "Error")
func (s *Store) Error(message, title string) uint64 {
	return s.Add(message, SeverityDanger, orDefault(title, "Error"), Auto)
}

// Warning queues a warning (default title "Warning")
func (s *Store) Warning(message, title string) uint64 {
	return s.Add(message, SeverityWarning, orDefault(title, "Warning"), Auto)
}

// Info queues an informational message with no default title
func (s *Store) Info(message, title string) uint64 {
	return s.Add(message, SeverityInfo, title, Auto)
}

// Watch calls fn with the full queue after every change. The returned
// func unregisters fn. fn runs outside the store's lock.
func (s *Store) Watch(fn func([]Notification)) func() {
	s.mu.Lock()
	id := s.nextWatcher
	s.nextWatcher++
	s.watchers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// Close stops every pending expiry timer. Queued notifications stay
// listed; later Adds no longer schedule expiry.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopTimersLocked()
}

func (s *Store) stopTimersLocked() {
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *Store) changedLocked() ([]Notification, []func([]Notification)) {
	if len(s.watchers) == 0 {
		return nil, nil
	}
	ids := make([]int, 0, len(s.watchers))
	for id := range s.watchers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	watchers := make([]func([]Notification), 0, len(ids))
	for _, id := range ids {
		watchers = append(watchers, s.watchers[id])
	}
	return append([]Notification(nil), s.notifications...), watchers
}

func notifyWatchers(watchers []func([]Notification), snapshot []Notification) {
	for _, fn := range watchers {
		fn(snapshot)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
