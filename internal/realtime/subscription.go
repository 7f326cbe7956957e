package realtime

import (
	"sync"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

const (
	statusQueueSize   = 8
	locationQueueSize = 16
)

// Subscription is one connection watching one order. Status and location
// events travel on separate channels so a burst of position updates can never
// delay a status change.
type Subscription struct {
	orderID kernel.UUID
	connID  string
	actorID kernel.UUID
	role    order.Role

	statusCh   chan StatusEvent
	locationCh chan LocationEvent

	closeOnce sync.Once
	done      chan struct{}
}

func newSubscription(orderID kernel.UUID, connID string, actorID kernel.UUID, role order.Role) *Subscription {
	return &Subscription{
		orderID:    orderID,
		connID:     connID,
		actorID:    actorID,
		role:       role,
		statusCh:   make(chan StatusEvent, statusQueueSize),
		locationCh: make(chan LocationEvent, locationQueueSize),
		done:       make(chan struct{}),
	}
}

func (s *Subscription) OrderID() kernel.UUID {
	return s.orderID
}

func (s *Subscription) ConnID() string {
	return s.connID
}

func (s *Subscription) ActorID() kernel.UUID {
	return s.actorID
}

func (s *Subscription) Role() order.Role {
	return s.role
}

// StatusEvents is drained by the connection's writer goroutine.
func (s *Subscription) StatusEvents() <-chan StatusEvent {
	return s.statusCh
}

// LocationEvents is drained by the connection's writer goroutine.
func (s *Subscription) LocationEvents() <-chan LocationEvent {
	return s.locationCh
}

// Done is closed when the subscription is removed from the registry. Readers
// must select on it alongside the event channels.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}
