package realtime

import (
	"sync"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// Registry tracks which connections watch which orders. A subscription is
// keyed by the pair (order, connection): joining the same order twice from
// one connection is a no-op, and one connection may watch several orders.
type Registry struct {
	mu      sync.RWMutex
	byOrder map[kernel.UUID]map[string]*Subscription
	byConn  map[string]map[kernel.UUID]*Subscription
}

func NewRegistry() *Registry {
	return &Registry{
		byOrder: make(map[kernel.UUID]map[string]*Subscription),
		byConn:  make(map[string]map[kernel.UUID]*Subscription),
	}
}

// Join registers a subscription and reports whether it was newly created.
// Re-joining returns the existing subscription unchanged.
func (r *Registry) Join(orderID kernel.UUID, connID string, actorID kernel.UUID, role order.Role) (*Subscription, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byOrder[orderID][connID]; ok {
		return existing, false
	}

	sub := newSubscription(orderID, connID, actorID, role)

	if r.byOrder[orderID] == nil {
		r.byOrder[orderID] = make(map[string]*Subscription)
	}
	r.byOrder[orderID][connID] = sub

	if r.byConn[connID] == nil {
		r.byConn[connID] = make(map[kernel.UUID]*Subscription)
	}
	r.byConn[connID][orderID] = sub

	return sub, true
}

// Leave removes a single subscription. Leaving an order that was never
// joined is a no-op.
func (r *Registry) Leave(orderID kernel.UUID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.byOrder[orderID][connID]
	if !ok {
		return
	}
	r.remove(sub)
}

// DropConnection removes every subscription held by a connection. It is
// called when the underlying socket closes.
func (r *Registry) DropConnection(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sub := range r.byConn[connID] {
		r.remove(sub)
	}
}

// CloseOrder removes every subscription of an order. Used after the final
// event of a terminal status has been delivered.
func (r *Registry) CloseOrder(orderID kernel.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sub := range r.byOrder[orderID] {
		r.remove(sub)
	}
}

// Subscribers returns a snapshot of an order's subscriptions. The caller may
// send on the snapshot without holding any registry lock.
func (r *Registry) Subscribers(orderID kernel.UUID) []*Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := make([]*Subscription, 0, len(r.byOrder[orderID]))
	for _, sub := range r.byOrder[orderID] {
		subs = append(subs, sub)
	}

	return subs
}

// remove requires r.mu to be held for writing.
func (r *Registry) remove(sub *Subscription) {
	delete(r.byOrder[sub.orderID], sub.connID)
	if len(r.byOrder[sub.orderID]) == 0 {
		delete(r.byOrder, sub.orderID)
	}

	delete(r.byConn[sub.connID], sub.orderID)
	if len(r.byConn[sub.connID]) == 0 {
		delete(r.byConn, sub.connID)
	}

	sub.close()
}
