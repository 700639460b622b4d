package main

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Variant string

const (
	VariantInfo    Variant = "info"
	VariantSuccess Variant = "success"
	VariantWarning Variant = "warning"
	VariantError   Variant = "error"
)

type Notification struct {
	Title     string
	Message   string
	Variant   Variant
	CreatedAt time.Time
}

// Notifier presents a notification to the user. It is fire-and-forget:
// delivery failures are not reported back to the caller.
type Notifier interface {
	Notify(n Notification)
}

type Subscriber func(Notification)

// Bus dispatches notifications to subscribers inline.
type Bus struct {
	mu          sync.Mutex
	subscribers []Subscriber
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(fn Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, fn)
}

func (b *Bus) Notify(n Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	b.mu.Lock()
	subs := make([]Subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.Unlock()

	for _, fn := range subs {
		fn(n)
	}
}

// logSubscriber records every notification in the log so toasts that
// expired off screen can still be found.
func logSubscriber(logger zerolog.Logger) Subscriber {
	return func(n Notification) {
		ev := logger.Info()
		switch n.Variant {
		case VariantError:
			ev = logger.Error()
		case VariantWarning:
			ev = logger.Warn()
		}
		ev.Str("title", n.Title).Str("variant", string(n.Variant)).Msg(n.Message)
	}
}
