package webhook

import (
	"context"
	"fmt"
	"time"
)

// ControlSubscriberID identifies the always-present control subscriber.
const ControlSubscriberID = "control"

// Query selects the subscribers for one application event.
type Query struct {
	UserID      int64
	EventTypeID int64
	Trigger     TriggerEvent
}

// Resolver returns the subscribers that must be notified for q, in delivery order.
type Resolver interface {
	Resolve(ctx context.Context, q Query) ([]Subscriber, error)
}

// ControlResolver yields the single control subscriber driven by configuration.
// An empty URL still produces a subscriber; the dispatcher reports it as a
// failed delivery.
type ControlResolver struct {
	URL    string
	Secret string
}

// NewControlResolver returns a ControlResolver for the given endpoint.
func NewControlResolver(url, secret string) *ControlResolver {
	return &ControlResolver{URL: url, Secret: secret}
}

// Subscriber builds the control subscriber for the given owner.
func (r *ControlResolver) Subscriber(userID, eventTypeID int64) Subscriber {
	return Subscriber{
		ID:            ControlSubscriberID,
		SubscriberURL: r.URL,
		Secret:        r.Secret,
		UserID:        userID,
		EventTypeID:   eventTypeID,
		Active:        true,
		EventTriggers: AllTriggers(),
		CreatedAt:     time.Now().UTC(),
	}
}

// Resolve implements Resolver.
func (r *ControlResolver) Resolve(_ context.Context, q Query) ([]Subscriber, error) {
	return filter([]Subscriber{r.Subscriber(q.UserID, q.EventTypeID)}, q.Trigger), nil
}

// SubscriberLister is the read side of a subscriber registry.
type SubscriberLister interface {
	ListSubscribersFor(ctx context.Context, userID, eventTypeID int64) ([]Subscriber, error)
}

// StoreResolver resolves subscribers from a persistent registry.
type StoreResolver struct {
	store SubscriberLister
}

// NewStoreResolver returns a StoreResolver backed by store.
func NewStoreResolver(store SubscriberLister) *StoreResolver {
	return &StoreResolver{store: store}
}

// Resolve implements Resolver.
func (r *StoreResolver) Resolve(ctx context.Context, q Query) ([]Subscriber, error) {
	subs, err := r.store.ListSubscribersFor(ctx, q.UserID, q.EventTypeID)
	if err != nil {
		return nil, fmt.Errorf("listing subscribers: %w", err)
	}
	return filter(subs, q.Trigger), nil
}

// StaticResolver resolves from a fixed list, typically loaded from a file.
// Entries with no owner apply to every user and event type.
type StaticResolver struct {
	subscribers []Subscriber
}

// NewStaticResolver returns a StaticResolver over subs.
func NewStaticResolver(subs []Subscriber) *StaticResolver {
	return &StaticResolver{subscribers: subs}
}

// Resolve implements Resolver.
func (r *StaticResolver) Resolve(_ context.Context, q Query) ([]Subscriber, error) {
	var matched []Subscriber
	for _, s := range r.subscribers {
		if s.UserID != 0 && s.UserID != q.UserID {
			continue
		}
		if s.EventTypeID != 0 && s.EventTypeID != q.EventTypeID {
			continue
		}
		matched = append(matched, s)
	}
	return filter(matched, q.Trigger), nil
}

// ChainResolver concatenates the results of several resolvers. A subscriber
// ID seen more than once is delivered only the first time.
type ChainResolver []Resolver

// Resolve implements Resolver.
func (c ChainResolver) Resolve(ctx context.Context, q Query) ([]Subscriber, error) {
	seen := make(map[string]struct{})
	var out []Subscriber
	for _, r := range c {
		subs, err := r.Resolve(ctx, q)
		if err != nil {
			return nil, err
		}
		for _, s := range subs {
			if _, dup := seen[s.ID]; dup {
				continue
			}
			seen[s.ID] = struct{}{}
			out = append(out, s)
		}
	}
	return out, nil
}

func filter(subs []Subscriber, trigger TriggerEvent) []Subscriber {
	out := make([]Subscriber, 0, len(subs))
	for _, s := range subs {
		if s.Accepts(trigger) {
			out = append(out, s)
		}
	}
	return out
}
