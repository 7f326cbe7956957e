package realtime

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// StatusEvent describes a committed status change of an order. It carries the
// full resulting state so a subscriber never has to infer it from deltas.
type StatusEvent struct {
	OrderID kernel.UUID
	Status  order.Status
	AgentID *kernel.UUID
	Version int
	At      time.Time
}

// LocationEvent is a single accepted position report of the courier working
// an order.
type LocationEvent struct {
	OrderID kernel.UUID
	AgentID kernel.UUID
	Lat     float64
	Lng     float64
	At      time.Time
}

// OfferEvent invites an agent to accept an order. It is addressed to a single
// agent rather than fanned out to an order's subscribers.
type OfferEvent struct {
	OrderID            kernel.UUID
	RestaurantLocation kernel.GeoPoint
	DeliveryLocation   kernel.GeoPoint
}

// TakenEvent tells an agent that an order it was offered went to someone else.
type TakenEvent struct {
	OrderID kernel.UUID
}
