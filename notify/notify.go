// Package notify defines the notification sink that flows report to.
//
// A notification is a (severity, message, auto-close duration) triple. How it
// is presented (toast, banner, JSON outbox) is the sink's business.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Severity grades a notification.
type Severity uint8

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityWarning
	SeverityError
)

// String returns the lowercase severity name used on the wire.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeveritySuccess:
		return "success"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Notification is a single user-facing message.
type Notification struct {
	ID        uuid.UUID     `json:"id"`
	Severity  Severity      `json:"severity"`
	Message   string        `json:"message"`
	AutoClose time.Duration `json:"-"`
	// AutoCloseMs mirrors AutoClose for JSON consumers.
	AutoCloseMs int64 `json:"auto_close_ms"`
}

// New builds a Notification with a fresh ID.
func New(sev Severity, message string, autoClose time.Duration) Notification {
	return Notification{
		ID:          uuid.New(),
		Severity:    sev,
		Message:     message,
		AutoClose:   autoClose,
		AutoCloseMs: autoClose.Milliseconds(),
	}
}

// Notifier receives notifications. Implementations must not block for long;
// flows call Notify inline.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Discard drops every notification.
type Discard struct{}

// Notify does nothing.
func (Discard) Notify(context.Context, Notification) {}

// Recorder keeps every notification in arrival order. It is safe for
// concurrent use.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// Notify appends n.
func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	r.mu.Unlock()
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Drain returns the recorded notifications and resets the recorder.
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.items
	r.items = nil
	return out
}

// Count returns how many notifications of severity sev were recorded.
func (r *Recorder) Count(sev Severity) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, item := range r.items {
		if item.Severity == sev {
			n++
		}
	}
	return n
}
