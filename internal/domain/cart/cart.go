// Package cart holds the session shopping cart.
//
// A Cart keeps an ordered list of products and a total that always equals the
// sum of their prices. Every mutation publishes an Event to the cart's
// listeners after the cart lock is released.
package cart

import (
	"context"
	"slices"
	"strconv"
	"sync"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/notify"
)

// EventKind identifies the mutation that produced an Event.
type EventKind string

const (
	EventAdded   EventKind = "added"
	EventRemoved EventKind = "removed"
	EventCleared EventKind = "cleared"
)

// Event describes a cart mutation.
type Event struct {
	Kind    EventKind
	Message string
	// Product is the added or removed product; nil for EventCleared and for
	// the batch removal done by RemoveAll.
	Product *product.Product
	Total   decimal.Decimal
	Count   int
}

// Listener receives cart events.
type Listener = notify.Listener[Event]

// SubscriptionID identifies a registered Listener.
type SubscriptionID = notify.SubscriptionID

// Cart is safe for concurrent use.
type Cart struct {
	mu    sync.Mutex
	items []*product.Product
	total decimal.Decimal

	events notify.Channel[Event]
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Subscribe registers l for all subsequent events.
func (c *Cart) Subscribe(l Listener) SubscriptionID {
	return c.events.Subscribe(l)
}

// Unsubscribe removes a listener. It reports whether it was registered.
func (c *Cart) Unsubscribe(id SubscriptionID) bool {
	return c.events.Unsubscribe(id)
}

// Add appends p. The same product may be added more than once.
func (c *Cart) Add(ctx context.Context, p *product.Product) {
	if p == nil {
		return
	}

	c.mu.Lock()
	c.items = append(c.items, p)
	c.recalculate()
	ev := c.event(EventAdded, "Product added: "+p.Name, p)
	c.mu.Unlock()

	c.publish(ctx, ev)
}

// Remove deletes the first entry that is the same *Product as p. Products
// are matched by reference, not by ID. Removing a product that is not in the
// cart changes nothing, publishes nothing and returns false.
func (c *Cart) Remove(ctx context.Context, p *product.Product) bool {
	c.mu.Lock()
	i := slices.Index(c.items, p)
	if p == nil || i < 0 {
		c.mu.Unlock()
		return false
	}
	c.items = slices.Delete(c.items, i, i+1)
	c.recalculate()
	ev := c.event(EventRemoved, "Product removed: "+p.Name, p)
	c.mu.Unlock()

	c.publish(ctx, ev)
	return true
}

// RemoveByID removes the first entry whose ID equals id and returns it.
func (c *Cart) RemoveByID(ctx context.Context, id string) (*product.Product, bool) {
	var p *product.Product
	c.mu.Lock()
	if i := slices.IndexFunc(c.items, func(p *product.Product) bool { return p.ID == id }); i >= 0 {
		p = c.items[i]
	}
	c.mu.Unlock()

	if p == nil || !c.Remove(ctx, p) {
		return nil, false
	}
	return p, true
}

// Clear empties the cart. It always publishes EventCleared.
func (c *Cart) Clear(ctx context.Context) {
	c.mu.Lock()
	c.items = nil
	c.total = decimal.Zero
	ev := c.event(EventCleared, "Cart cleared", nil)
	c.mu.Unlock()

	c.publish(ctx, ev)
}

// RemoveAll removes one pointer-equal entry for every product in items, as
// taken by an earlier Items call. Entries added since then are kept. It
// publishes a single event: EventCleared when the cart ends up empty,
// otherwise EventRemoved with a nil Product. Nothing is published when no
// entry matched. It returns the number of removed entries.
func (c *Cart) RemoveAll(ctx context.Context, items []*product.Product) int {
	c.mu.Lock()
	removed := 0
	for _, p := range items {
		if i := slices.Index(c.items, p); p != nil && i >= 0 {
			c.items = slices.Delete(c.items, i, i+1)
			removed++
		}
	}
	if removed == 0 {
		c.mu.Unlock()
		return 0
	}
	c.recalculate()
	var ev Event
	if len(c.items) == 0 {
		c.items = nil
		ev = c.event(EventCleared, "Cart cleared", nil)
	} else {
		ev = c.event(EventRemoved, "Products removed: "+strconv.Itoa(removed), nil)
	}
	c.mu.Unlock()

	c.publish(ctx, ev)
	return removed
}

// Items returns a snapshot of the cart contents in insertion order.
func (c *Cart) Items() []*product.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Total returns the sum of Price over the current items.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Len returns the number of entries in the cart.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// recalculate re-sums every item. Caller must hold c.mu.
func (c *Cart) recalculate() {
	sum := decimal.Zero
	for _, p := range c.items {
		sum = sum.Add(p.Price())
	}
	c.total = sum
}

// event builds an Event from the current state. Caller must hold c.mu.
func (c *Cart) event(kind EventKind, msg string, p *product.Product) Event {
	return Event{
		Kind:    kind,
		Message: msg,
		Product: p,
		Total:   c.total,
		Count:   len(c.items),
	}
}

func (c *Cart) publish(ctx context.Context, ev Event) {
	if err := c.events.Publish(ctx, ev); err != nil {
		zctx.From(ctx).Warn("Cart listener failed",
			zap.String("event", string(ev.Kind)),
			zap.Error(err),
		)
	}
}
