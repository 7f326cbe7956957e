package queries

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
)

// GetOrderQueryHandler reads a single order and its status history straight
// from the database.
type GetOrderQueryHandler struct {
	db *gorm.DB
}

// NewGetOrderQueryHandler creates a handler for order detail queries.
// Requires a GORM database connection for query execution.
func NewGetOrderQueryHandler(db *gorm.DB) GetOrderQueryHandler {
	return GetOrderQueryHandler{db: db}
}

// Handle executes the query. Returns errs.ErrObjectNotFound (wrapped) when
// the order does not exist.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (GetOrderQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderQueryResponse{}, err
	}

	var row struct {
		ID               uuid.UUID
		CustomerID       uuid.UUID
		BusinessID       uuid.UUID
		AgentID          *uuid.UUID
		RestaurantLat    float64
		RestaurantLng    float64
		DeliveryLat      float64
		DeliveryLng      float64
		PreferredVehicle *int
		Status           int
		Version          int
	}

	err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			customer_id,
			business_id,
			agent_id,
			restaurant_lat,
			restaurant_lng,
			delivery_lat,
			delivery_lng,
			preferred_vehicle,
			status,
			version
		FROM orders
		WHERE id = ?
	`, query.OrderID().Bytes()).Scan(&row).Error
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	if row.ID == uuid.Nil {
		return GetOrderQueryResponse{}, errs.NewObjectNotFoundError("orderId", query.OrderID())
	}

	response, err := h.buildResponse(row.ID, row.CustomerID, row.BusinessID, row.AgentID,
		row.RestaurantLat, row.RestaurantLng, row.DeliveryLat, row.DeliveryLng,
		row.Status, row.Version)
	if err != nil {
		return GetOrderQueryResponse{}, err
	}

	history, err := h.loadHistory(ctx, query.OrderID())
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	response.History = history

	return response, nil
}

func (h GetOrderQueryHandler) buildResponse(
	id, customerID, businessID uuid.UUID,
	agentID *uuid.UUID,
	restaurantLat, restaurantLng, deliveryLat, deliveryLng float64,
	status, version int,
) (GetOrderQueryResponse, error) {
	orderID, err := kernel.UUIDFromBytes(id[:])
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	customer, err := kernel.UUIDFromBytes(customerID[:])
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	business, err := kernel.UUIDFromBytes(businessID[:])
	if err != nil {
		return GetOrderQueryResponse{}, err
	}

	var agent *kernel.UUID
	if agentID != nil {
		agentUUID, agentErr := kernel.UUIDFromBytes((*agentID)[:])
		if agentErr != nil {
			return GetOrderQueryResponse{}, agentErr
		}
		agent = &agentUUID
	}

	restaurant, err := kernel.NewGeoPoint(restaurantLat, restaurantLng)
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	delivery, err := kernel.NewGeoPoint(deliveryLat, deliveryLng)
	if err != nil {
		return GetOrderQueryResponse{}, err
	}

	return GetOrderQueryResponse{
		ID:                 orderID,
		CustomerID:         customer,
		BusinessID:         business,
		AgentID:            agent,
		RestaurantLocation: restaurant,
		DeliveryLocation:   delivery,
		Status:             order.Status(status),
		Version:            version,
	}, nil
}

func (h GetOrderQueryHandler) loadHistory(ctx context.Context, orderID kernel.UUID) ([]StatusChangeResponse, error) {
	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			status,
			at
		FROM order_status_changes
		WHERE order_id = ?
		ORDER BY seq
	`, orderID.Bytes()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]StatusChangeResponse, 0)
	for rows.Next() {
		var status int
		var at time.Time

		if err = rows.Scan(&status, &at); err != nil {
			return nil, err
		}

		history = append(history, StatusChangeResponse{
			Status: order.Status(status),
			At:     at,
		})
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, errors.New("order has no status history")
	}

	return history, nil
}
