// Package notify implements an in-process publish/subscribe channel.
//
// Delivery is synchronous and follows subscription order. Every listener
// receives every published event exactly once, regardless of whether an
// earlier listener returned an error or panicked.
package notify

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/multierr"
)

// ErrPanicked is wrapped by the error reported for a listener that panicked.
var ErrPanicked = errors.New("listener panicked")

// Listener receives published events.
type Listener[E any] func(ctx context.Context, ev E) error

// SubscriptionID identifies a registered listener. IDs start at 1 and are
// never reused by the same Channel.
type SubscriptionID uint64

// ListenerError reports a failed delivery to a single listener.
type ListenerError struct {
	Subscription SubscriptionID
	Err          error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("listener %d: %v", e.Subscription, e.Err)
}

func (e *ListenerError) Unwrap() error {
	return e.Err
}

type subscription[E any] struct {
	id SubscriptionID
	fn Listener[E]
}

// Channel is a listener registry. The zero value is ready to use.
type Channel[E any] struct {
	mu   sync.RWMutex
	last SubscriptionID
	subs []subscription[E]
}

// Subscribe registers l and returns its ID.
func (c *Channel[E]) Subscribe(l Listener[E]) SubscriptionID {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.last++
	c.subs = append(c.subs, subscription[E]{id: c.last, fn: l})
	return c.last
}

// Unsubscribe removes the listener with the given ID. It reports whether the
// listener was registered.
func (c *Channel[E]) Unsubscribe(id SubscriptionID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := slices.IndexFunc(c.subs, func(s subscription[E]) bool { return s.id == id })
	if i < 0 {
		return false
	}
	c.subs = slices.Delete(c.subs, i, i+1)
	return true
}

// Len returns the number of registered listeners.
func (c *Channel[E]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs)
}

// Publish delivers ev to every listener registered at the time of the call.
// Listeners may subscribe or unsubscribe from within a delivery; the change
// takes effect for the next Publish.
//
// The returned error combines one *ListenerError per failed listener and is
// nil when all deliveries succeeded.
func (c *Channel[E]) Publish(ctx context.Context, ev E) error {
	c.mu.RLock()
	subs := slices.Clone(c.subs)
	c.mu.RUnlock()

	var errs error
	for _, s := range subs {
		if err := deliver(ctx, s.fn, ev); err != nil {
			errs = multierr.Append(errs, &ListenerError{Subscription: s.id, Err: err})
		}
	}
	return errs
}

func deliver[E any](ctx context.Context, fn Listener[E], ev E) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanicked, r)
		}
	}()
	return fn(ctx, ev)
}
