// Package payment hands payment orders to the hosted checkout widget and
// routes the widget's completion back to whoever opened it.
package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hackgods/doctor-booking-web/internal/backend"
)

var (
	ErrUnknownOrder = errors.New("unknown payment order")
)

// Result is what the widget reports once the user finishes checkout.
type Result struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// Checkout opens the external payment widget for an order. onComplete runs
// when the widget reports completion.
type Checkout interface {
	Open(ctx context.Context, order backend.Order, onComplete func(Result)) error
}

type pending struct {
	order      backend.Order
	onComplete func(Result)
	openedAt   time.Time
	shared     bool
}

func (p pending) run(res Result) {
	if p.onComplete != nil {
		p.onComplete(res)
	}
}

// SharedOrders is a store all replicas see, such as Redis. Take reads and
// deletes in one step.
type SharedOrders interface {
	Set(ctx context.Context, key string, v any) error
	Take(ctx context.Context, key string, v any) (bool, error)
}

type RegistryOption func(*Registry)

// WithSharedOrders publishes opened orders to store so a widget callback
// that reaches another replica can still be completed there.
func WithSharedOrders(store SharedOrders) RegistryOption {
	return func(r *Registry) {
		r.shared = store
	}
}

// Registry is a Checkout for server-rendered pages: Open records the order,
// the page renders the widget for it, and the widget's callback request
// calls Complete.
type Registry struct {
	mu       sync.Mutex
	orders   map[string]pending
	ttl      time.Duration
	now      func() time.Time
	shared   SharedOrders
	onRemote func(backend.Order, Result)
}

func NewRegistry(ttl time.Duration, opts ...RegistryOption) *Registry {
	r := &Registry{
		orders: make(map[string]pending),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnRemoteComplete sets what runs when an order opened on another replica
// completes here. The opener's callback lives on that replica.
func (r *Registry) OnRemoteComplete(fn func(backend.Order, Result)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onRemote = fn
}

func (r *Registry) Open(ctx context.Context, order backend.Order, onComplete func(Result)) error {
	if order.ID == "" {
		return errors.New("payment order without id")
	}

	p := pending{order: order, onComplete: onComplete, openedAt: r.now()}
	if r.shared != nil {
		// without the shared copy only this replica can complete the order
		p.shared = r.shared.Set(ctx, sharedKey(order.ID), order) == nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictLocked()
	r.orders[order.ID] = p
	return nil
}

// Order returns an order opened on this replica.
func (r *Registry) Order(id string) (backend.Order, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.orders[id]
	return p.order, ok
}

// Complete finishes the order named by res.OrderID exactly once across all
// replicas sharing the store. The opener's callback runs when the order was
// opened here, the remote handler otherwise.
func (r *Registry) Complete(ctx context.Context, res Result) error {
	r.mu.Lock()
	p, local := r.orders[res.OrderID]
	delete(r.orders, res.OrderID)
	onRemote := r.onRemote
	r.mu.Unlock()

	if r.shared == nil || (local && !p.shared) {
		if !local {
			return ErrUnknownOrder
		}
		p.run(res)
		return nil
	}

	var order backend.Order
	taken, err := r.shared.Take(ctx, sharedKey(res.OrderID), &order)
	switch {
	case err != nil && local:
		p.run(res)
	case err != nil:
		return fmt.Errorf("take shared order %s: %w", res.OrderID, err)
	case !taken:
		// already completed elsewhere, or expired
		return ErrUnknownOrder
	case local:
		p.run(res)
	case onRemote != nil:
		onRemote(order, res)
	}
	return nil
}

func (r *Registry) evictLocked() {
	if r.ttl <= 0 {
		return
	}
	cutoff := r.now().Add(-r.ttl)
	for id, p := range r.orders {
		if p.openedAt.Before(cutoff) {
			delete(r.orders, id)
		}
	}
}

func sharedKey(orderID string) string {
	return "payment:order:" + orderID
}
