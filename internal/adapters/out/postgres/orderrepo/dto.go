// Package orderrepo provides data transfer objects and mapping functions for
// order persistence. It implements the repository pattern for the order
// aggregate, including the optimistic concurrency check that guards every
// write to an existing order.
package orderrepo

import (
	"time"

	"github.com/google/uuid"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// OrderDTO represents the database structure for persisting order aggregates.
// The version column backs the conditional update; the status history lives
// in its own table keyed by (order_id, seq) so entries stay in write order.
type OrderDTO struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CustomerID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	BusinessID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	AgentID          *uuid.UUID `gorm:"type:uuid;index"`
	RestaurantLat    float64    `gorm:"type:double precision;not null"`
	RestaurantLng    float64    `gorm:"type:double precision;not null"`
	DeliveryLat      float64    `gorm:"type:double precision;not null"`
	DeliveryLng      float64    `gorm:"type:double precision;not null"`
	PreferredVehicle *int       `gorm:"type:int"`
	Status           int        `gorm:"type:int;not null;index"`
	Version          int        `gorm:"type:int;not null"`

	History []StatusChangeDTO `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for order entities.
func (OrderDTO) TableName() string {
	return "orders"
}

// StatusChangeDTO represents one entry of an order's status history.
// Seq equals the order version that produced the entry.
type StatusChangeDTO struct {
	OrderID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Seq     int       `gorm:"type:int;primaryKey"`
	Status  int       `gorm:"type:int;not null"`
	At      time.Time `gorm:"type:timestamptz;not null"`
}

// TableName specifies the database table name for status history entries.
func (StatusChangeDTO) TableName() string {
	return "order_status_changes"
}

// fromDomain converts an order domain aggregate to its database
// representation, including the full status history.
func fromDomain(aggregate *order.Order) OrderDTO {
	orderID := aggregate.ID().Bytes()

	var agentID *uuid.UUID
	if id := aggregate.AgentID(); id != nil {
		raw := id.Bytes()
		agentID = &raw
	}

	var preferredVehicle *int
	if v := aggregate.PreferredVehicle(); v != nil {
		raw := int(*v)
		preferredVehicle = &raw
	}

	history := aggregate.History()
	historyDTOs := make([]StatusChangeDTO, 0, len(history))
	for i, change := range history {
		historyDTOs = append(historyDTOs, StatusChangeDTO{
			OrderID: orderID,
			Seq:     i + 1,
			Status:  int(change.Status()),
			At:      change.At(),
		})
	}

	return OrderDTO{
		ID:               orderID,
		CustomerID:       aggregate.CustomerID().Bytes(),
		BusinessID:       aggregate.BusinessID().Bytes(),
		AgentID:          agentID,
		RestaurantLat:    aggregate.RestaurantLocation().Lat(),
		RestaurantLng:    aggregate.RestaurantLocation().Lng(),
		DeliveryLat:      aggregate.DeliveryLocation().Lat(),
		DeliveryLng:      aggregate.DeliveryLocation().Lng(),
		PreferredVehicle: preferredVehicle,
		Status:           int(aggregate.Status()),
		Version:          aggregate.Version(),
		History:          historyDTOs,
	}
}

// toDomain converts a database DTO to an order domain aggregate.
// The DTO's history must be loaded and sorted by seq.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	customerID, err := kernel.UUIDFromBytes(dto.CustomerID[:])
	if err != nil {
		return nil, err
	}

	businessID, err := kernel.UUIDFromBytes(dto.BusinessID[:])
	if err != nil {
		return nil, err
	}

	var agentID *kernel.UUID
	if dto.AgentID != nil {
		aID, agentErr := kernel.UUIDFromBytes((*dto.AgentID)[:])
		if agentErr != nil {
			return nil, agentErr
		}
		agentID = &aID
	}

	restaurantLocation, err := kernel.NewGeoPoint(dto.RestaurantLat, dto.RestaurantLng)
	if err != nil {
		return nil, err
	}

	deliveryLocation, err := kernel.NewGeoPoint(dto.DeliveryLat, dto.DeliveryLng)
	if err != nil {
		return nil, err
	}

	var preferredVehicle *kernel.Vehicle
	if dto.PreferredVehicle != nil {
		v := kernel.Vehicle(*dto.PreferredVehicle)
		if vErr := v.Validate(); vErr != nil {
			return nil, vErr
		}
		preferredVehicle = &v
	}

	history := make([]order.StatusChange, 0, len(dto.History))
	for _, changeDTO := range dto.History {
		change, changeErr := order.NewStatusChange(order.Status(changeDTO.Status), changeDTO.At)
		if changeErr != nil {
			return nil, changeErr
		}
		history = append(history, change)
	}

	return order.RestoreOrder(
		id,
		customerID,
		businessID,
		restaurantLocation,
		deliveryLocation,
		preferredVehicle,
		agentID,
		order.Status(dto.Status),
		history,
		dto.Version,
	)
}
