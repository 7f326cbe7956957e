package ports

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// ErrStaleVersion is returned by conditional writes when the stored order
// version no longer matches the expected one, i.e. a concurrent write won.
// Callers reload the order and decide whether to retry.
var ErrStaleVersion = errors.New("order version is stale")

// OrderRepository defines the persistence contract for order aggregates.
// All mutations of existing orders go through the conditional update so
// every write is protected by the optimistic concurrency check.
type OrderRepository interface {
	// Add persists a new order aggregate to storage.
	// The order must be valid and not already exist in the repository.
	Add(ctx context.Context, aggregate *order.Order) error

	// UpdateConditional persists changes to an existing order only if the
	// stored version still equals expectedVersion. Returns ErrStaleVersion
	// when a concurrent write got there first; the aggregate is then left
	// unchanged in storage.
	UpdateConditional(ctx context.Context, aggregate *order.Order, expectedVersion int) error

	// Get retrieves an order aggregate by its unique identifier,
	// including its full status history.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetAllInStatus retrieves all orders currently in the given status.
	// Used by the offer sweep to find ready orders.
	GetAllInStatus(ctx context.Context, status order.Status) ([]*order.Order, error)
}
