// Package agentrepo provides data transfer objects and mapping functions for
// agent persistence, converting between the agent domain aggregate and its
// database representation.
package agentrepo

import (
	"time"

	"github.com/google/uuid"

	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/core/domain/model/kernel"
)

// AgentDTO represents the database structure for persisting agent aggregates.
// Lat, Lng and LastLocationAt are null until the agent's first accepted
// position report; ActiveOrderID is null while the agent is free.
type AgentDTO struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name           string     `gorm:"type:varchar(255);not null"`
	Vehicle        int        `gorm:"type:int;not null"`
	IsAvailable    bool       `gorm:"type:boolean;not null;index"`
	Lat            *float64   `gorm:"type:double precision"`
	Lng            *float64   `gorm:"type:double precision"`
	LastLocationAt *time.Time `gorm:"type:timestamptz"`
	ActiveOrderID  *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName specifies the database table name for agent entities.
func (AgentDTO) TableName() string {
	return "agents"
}

// fromDomain converts an agent domain aggregate to its database
// representation.
func fromDomain(aggregate *agent.Agent) AgentDTO {
	var lat, lng *float64
	var lastLocationAt *time.Time
	if loc := aggregate.Location(); loc != nil {
		latValue, lngValue := loc.Lat(), loc.Lng()
		lat, lng = &latValue, &lngValue
		at := aggregate.LastLocationAt()
		lastLocationAt = &at
	}

	var activeOrderID *uuid.UUID
	if id := aggregate.ActiveOrderID(); id != nil {
		raw := id.Bytes()
		activeOrderID = &raw
	}

	return AgentDTO{
		ID:             aggregate.ID().Bytes(),
		Name:           aggregate.Name(),
		Vehicle:        int(aggregate.Vehicle()),
		IsAvailable:    aggregate.IsAvailable(),
		Lat:            lat,
		Lng:            lng,
		LastLocationAt: lastLocationAt,
		ActiveOrderID:  activeOrderID,
	}
}

// toDomain converts a database DTO to an agent domain aggregate using
// RestoreAgent.
func toDomain(dto AgentDTO) (*agent.Agent, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	vehicle := kernel.Vehicle(dto.Vehicle)
	if err = vehicle.Validate(); err != nil {
		return nil, err
	}

	var location *kernel.GeoPoint
	var lastLocationAt time.Time
	if dto.Lat != nil && dto.Lng != nil && dto.LastLocationAt != nil {
		loc, locErr := kernel.NewGeoPoint(*dto.Lat, *dto.Lng)
		if locErr != nil {
			return nil, locErr
		}
		location = &loc
		lastLocationAt = *dto.LastLocationAt
	}

	var activeOrderID *kernel.UUID
	if dto.ActiveOrderID != nil {
		oID, orderErr := kernel.UUIDFromBytes((*dto.ActiveOrderID)[:])
		if orderErr != nil {
			return nil, orderErr
		}
		activeOrderID = &oID
	}

	return agent.RestoreAgent(
		id,
		dto.Name,
		vehicle,
		dto.IsAvailable,
		location,
		lastLocationAt,
		activeOrderID,
	)
}
