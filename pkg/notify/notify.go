// Package notify keeps the non-blocking toast notifications surfaced to the
// customer until the front end drains them.
package notify

import (
	"sync"
	"time"

	"marketplace/pkg/model"
)

const (
	LevelInfo  = "info"
	LevelError = "error"

	DefaultCapacity = 50
)

type Toast struct {
	Level   string       `json:"level"`
	Domain  model.Domain `json:"domain,omitempty"`
	Message string       `json:"message"`
	At      time.Time    `json:"at"`
}

// Inbox is a bounded FIFO of toasts. When full the oldest toast is dropped.
type Inbox struct {
	mu       sync.Mutex
	toasts   []Toast
	capacity int
	now      func() time.Time
}

func NewInbox(capacity int) *Inbox {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Inbox{capacity: capacity, now: time.Now}
}

func (i *Inbox) Push(level string, domain model.Domain, message string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if len(i.toasts) == i.capacity {
		i.toasts = i.toasts[1:]
	}
	i.toasts = append(i.toasts, Toast{
		Level:   level,
		Domain:  domain,
		Message: message,
		At:      i.now(),
	})
}

func (i *Inbox) Error(domain model.Domain, message string) {
	i.Push(LevelError, domain, message)
}

func (i *Inbox) Info(domain model.Domain, message string) {
	i.Push(LevelInfo, domain, message)
}

// Drain returns the pending toasts in arrival order and empties the inbox.
func (i *Inbox) Drain() []Toast {
	i.mu.Lock()
	defer i.mu.Unlock()

	out := i.toasts
	i.toasts = nil
	if out == nil {
		out = []Toast{}
	}
	return out
}

func (i *Inbox) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.toasts)
}
