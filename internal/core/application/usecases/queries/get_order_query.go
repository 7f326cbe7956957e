// Package queries contains read-only operations for the dispatch system.
// Implements the Query side of the CQRS architecture: handlers read the
// database directly and return plain response structs, bypassing the
// aggregate constructors and the unit of work.
package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/guard"
)

var ErrGetOrderQueryIsNotConstructed = errors.New(
	"GetOrderQuery must be created via NewGetOrderQuery constructor",
)

// GetOrderQuery retrieves one order with its full status history.
// Serves the order detail endpoint and the snapshot sent to subscribers on
// join.
//
// Example:
//
//	query, _ := NewGetOrderQuery(orderID)
//	handler := NewGetOrderQueryHandler(db)
//	snapshot, err := handler.Handle(ctx, query)
type GetOrderQuery struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetOrderQuery creates a query for the given order.
func NewGetOrderQuery(orderID kernel.UUID) (GetOrderQuery, error) {
	query := GetOrderQuery{
		guard: guard.NewConstructorGuard(),
	}

	if err := orderID.Validate(); err != nil {
		return GetOrderQuery{}, err
	}
	query.orderID = orderID

	return query, nil
}

// Validate ensures the query was created through the constructor.
func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

// OrderID returns the queried order's ID.
func (q GetOrderQuery) OrderID() kernel.UUID {
	return q.orderID
}

// StatusChangeResponse is one entry of an order's status history.
type StatusChangeResponse struct {
	Status order.Status
	At     time.Time
}

// GetOrderQueryResponse is a read model of a single order.
type GetOrderQueryResponse struct {
	ID                 kernel.UUID
	CustomerID         kernel.UUID
	BusinessID         kernel.UUID
	AgentID            *kernel.UUID
	RestaurantLocation kernel.GeoPoint
	DeliveryLocation   kernel.GeoPoint
	Status             order.Status
	Version            int
	History            []StatusChangeResponse
}
