// Package eventbus provides an in-memory, asynchronous event bus for booking
// and webhook side effects. Events are dispatched through a buffered channel
// and processed by a worker pool, so publishers never wait on listeners.
package eventbus

import (
	"log/slog"
	"sync"
	"time"
)

const (
	defaultWorkers    = 3
	defaultBufferSize = 100
)

// EventBus is the interface for publishing events and managing subscribers.
type EventBus interface {
	// Publish enqueues an event with the given type and payload.
	// It never blocks: if the buffer is full, or the bus is closed, the event
	// is dropped and a warning is logged.
	Publish(eventType string, payload map[string]string)

	// Subscribe registers a listener for the given event types, or for every
	// event when no types are given. Subscribe must be called before the
	// first Publish.
	Subscribe(listener Listener, eventTypes ...string)

	// Close stops accepting new events and waits for all pending events to be processed.
	Close()
}

type subscription struct {
	listener Listener
	types    map[string]bool
}

func (s subscription) wants(eventType string) bool {
	return len(s.types) == 0 || s.types[eventType]
}

// inMemoryBus is the default EventBus implementation.
type inMemoryBus struct {
	ch      chan Event
	subs    []subscription
	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	workers int
	logger  *slog.Logger
}

// New creates a new in-memory EventBus with the specified number of worker goroutines.
// If workers is <= 0, defaultWorkers (3) is used. A nil logger uses slog.Default().
func New(workers int, logger *slog.Logger) EventBus {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	b := &inMemoryBus{
		ch:      make(chan Event, defaultBufferSize),
		workers: workers,
		logger:  logger.With("component", "eventbus"),
	}
	b.startWorkers()
	return b
}

func (b *inMemoryBus) startWorkers() {
	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			for e := range b.ch {
				b.dispatch(e)
			}
		}()
	}
}

// dispatch calls the listeners subscribed to e.Type. A panicking listener
// is recovered and does not affect the others.
func (b *inMemoryBus) dispatch(e Event) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		if !s.wants(e.Type) {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("listener panicked", "event_type", e.Type, "panic", r)
				}
			}()
			s.listener(e)
		}()
	}
}

// Publish enqueues an event. If the buffer is full the event is dropped.
func (b *inMemoryBus) Publish(eventType string, payload map[string]string) {
	e := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		b.logger.Warn("bus closed, dropping event", "event_type", eventType)
		return
	}

	select {
	case b.ch <- e:
	default:
		b.logger.Warn("buffer full, dropping event", "event_type", eventType)
	}
}

// Subscribe adds a listener to receive future events of the given types.
func (b *inMemoryBus) Subscribe(listener Listener, eventTypes ...string) {
	s := subscription{listener: listener}
	if len(eventTypes) > 0 {
		s.types = make(map[string]bool, len(eventTypes))
		for _, t := range eventTypes {
			s.types[t] = true
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, s)
}

// Close drains and closes the event channel, then waits for all workers to finish.
func (b *inMemoryBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.ch)
	b.mu.Unlock()

	b.wg.Wait()
}
