package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrGetAvailableAgentsQueryIsNotConstructed = errors.New(
	"GetAvailableAgentsQuery must be created via NewGetAvailableAgentsQuery constructor",
)

// GetAvailableAgentsQuery retrieves all agents currently accepting offers,
// with their last known positions. Serves the dispatch dashboard.
//
// Example:
//
//	query := NewGetAvailableAgentsQuery()
//	handler := NewGetAvailableAgentsQueryHandler(db)
//	agents, err := handler.Handle(ctx, query)
type GetAvailableAgentsQuery struct {
	guard guard.ConstructorGuard
}

// NewGetAvailableAgentsQuery creates a query for the available agent pool.
func NewGetAvailableAgentsQuery() GetAvailableAgentsQuery {
	return GetAvailableAgentsQuery{guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
func (q GetAvailableAgentsQuery) Validate() error {
	return q.guard.Validate(ErrGetAvailableAgentsQueryIsNotConstructed)
}

// GetAvailableAgentsQueryResponse represents one available agent.
// Location is nil for agents that have not reported a position yet.
type GetAvailableAgentsQueryResponse struct {
	ID             kernel.UUID
	Name           string
	Vehicle        kernel.Vehicle
	Location       *kernel.GeoPoint
	LastLocationAt *time.Time
}
