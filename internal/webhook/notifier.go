package webhook

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Hook observes every delivery outcome after it completes. Hooks run on the
// delivering goroutine and must be safe for concurrent use.
type Hook func(ctx context.Context, trigger TriggerEvent, sub Subscriber, o Outcome, elapsed time.Duration)

// Notifier fans one event out to every resolved subscriber.
type Notifier struct {
	resolver   Resolver
	dispatcher Dispatcher
	hooks      []Hook
	limit      int
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithHook registers h to observe each outcome.
func WithHook(h Hook) Option {
	return func(n *Notifier) { n.hooks = append(n.hooks, h) }
}

// WithConcurrency caps the number of in-flight deliveries per event.
// Zero or negative means unlimited.
func WithConcurrency(limit int) Option {
	return func(n *Notifier) { n.limit = limit }
}

// NewNotifier returns a Notifier resolving with r and delivering with d.
func NewNotifier(r Resolver, d Dispatcher, opts ...Option) *Notifier {
	n := &Notifier{resolver: r, dispatcher: d}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify resolves the subscribers for q and delivers data to each of them
// concurrently, waiting for all deliveries. The returned outcomes are in
// resolver order, one per subscriber. Only a resolver failure is returned
// as an error; delivery failures are reported in the outcomes.
func (n *Notifier) Notify(ctx context.Context, q Query, createdAt string, data CalendarEvent) ([]Outcome, error) {
	subs, err := n.resolver.Resolve(ctx, q)
	if err != nil {
		return nil, err
	}
	return n.Deliver(ctx, q.Trigger, subs, createdAt, data), nil
}

// Deliver sends data to the given subscribers without consulting the resolver.
func (n *Notifier) Deliver(ctx context.Context, trigger TriggerEvent, subs []Subscriber, createdAt string, data CalendarEvent) []Outcome {
	outcomes := make([]Outcome, len(subs))

	var g errgroup.Group
	if n.limit > 0 {
		g.SetLimit(n.limit)
	}
	for i, sub := range subs {
		g.Go(func() error {
			start := time.Now()
			outcomes[i] = n.deliverOne(ctx, trigger, sub, createdAt, data)
			for _, h := range n.hooks {
				h(ctx, trigger, sub, outcomes[i], time.Since(start))
			}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (n *Notifier) deliverOne(ctx context.Context, trigger TriggerEvent, sub Subscriber, createdAt string, data CalendarEvent) Outcome {
	body, err := BuildPayload(sub, trigger, createdAt, data)
	if err != nil {
		return failure(sub, "%v", err)
	}
	return n.dispatcher.Dispatch(ctx, sub, body)
}
