package queries

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dispatch/internal/core/domain/model/kernel"
)

// GetAvailableAgentsQueryHandler reads the available agent pool from the
// database.
type GetAvailableAgentsQueryHandler struct {
	db *gorm.DB
}

// NewGetAvailableAgentsQueryHandler creates a handler for agent pool queries.
// Requires a GORM database connection for query execution.
func NewGetAvailableAgentsQueryHandler(db *gorm.DB) GetAvailableAgentsQueryHandler {
	return GetAvailableAgentsQueryHandler{db: db}
}

// Handle executes the query. Results are sorted by agent ID for consistent
// output.
func (h GetAvailableAgentsQueryHandler) Handle(
	ctx context.Context,
	query GetAvailableAgentsQuery,
) ([]GetAvailableAgentsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			name,
			vehicle,
			lat,
			lng,
			last_location_at
		FROM agents
		WHERE is_available = true
		ORDER BY id
	`).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	agents := make([]GetAvailableAgentsQueryResponse, 0)
	for rows.Next() {
		var (
			id             uuid.UUID
			name           string
			vehicle        int
			lat, lng       *float64
			lastLocationAt *time.Time
		)

		if err = rows.Scan(&id, &name, &vehicle, &lat, &lng, &lastLocationAt); err != nil {
			return nil, err
		}

		agentID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}

		response := GetAvailableAgentsQueryResponse{
			ID:             agentID,
			Name:           name,
			Vehicle:        kernel.Vehicle(vehicle),
			LastLocationAt: lastLocationAt,
		}

		if lat != nil && lng != nil {
			location, locErr := kernel.NewGeoPoint(*lat, *lng)
			if locErr != nil {
				return nil, locErr
			}
			response.Location = &location
		}

		agents = append(agents, response)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return agents, nil
}
