// Package events fans narrative generation outcomes out to in-process
// subscribers such as the CLI progress printer.
package events

import (
	"sync"
	"time"
)

// Kind classifies an Event.
type Kind string

const (
	KindGenerated Kind = "generated"
	KindInvalid   Kind = "invalid"
	KindFailed    Kind = "failed"
	KindReloaded  Kind = "phrases_reloaded"
)

// Event describes one processed record or configuration change.
type Event struct {
	Kind     Kind
	File     string
	Unit     string
	Status   string
	Output   string
	Err      string
	Duration time.Duration
	At       time.Time
}

// Bus provides simple in-process pub/sub for observability. Slow subscribers
// miss events rather than blocking publishers.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan Event
	closed bool
}

func NewBus() *Bus { return &Bus{} }

// Subscribe returns a buffered channel of future events. It is closed by Close.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close closes every subscriber channel. Later publishes are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
