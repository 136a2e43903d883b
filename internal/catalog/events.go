package catalog

import (
	"sort"
	"sync"
)

// Event is a lifecycle signal published on a Bus.
type Event interface {
	eventName() string
}

// ReadyEvent is published once Initialize finishes, successfully or not.
type ReadyEvent struct {
	Success bool
	Err     error
}

// AllToolsLoadedEvent is published when the background hydrator finishes.
// Count is the size of the snapshot then installed.
type AllToolsLoadedEvent struct {
	Count int
}

// ErrorEvent is published when a live subscription fails.
type ErrorEvent struct {
	Err error
}

func (ReadyEvent) eventName() string          { return "ready" }
func (AllToolsLoadedEvent) eventName() string { return "all-tools-loaded" }
func (ErrorEvent) eventName() string          { return "error" }

// Bus fans events out to subscribers. Delivery is synchronous and there is
// no replay: a subscriber only sees events published after it subscribed.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]func(Event)
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[int]func(Event))}
}

// Subscription is a handle returned by Bus.Subscribe.
type Subscription struct {
	bus  *Bus
	id   int
	once sync.Once
}

// Subscribe registers fn for every future event.
func (b *Bus) Subscribe(fn func(Event)) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = fn
	return &Subscription{bus: b, id: id}
}

// Unsubscribe stops delivery to the handler. Safe to call twice.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.handlers, s.id)
		s.bus.mu.Unlock()
	})
}

// Publish delivers e to the current subscribers in subscription order.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	ids := make([]int, 0, len(b.handlers))
	for id := range b.handlers {
		ids = append(ids, id)
	}
	handlers := make([]func(Event), 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		handlers = append(handlers, b.handlers[id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}
