package http

import (
	"time"

	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/order"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// GeoPointDTO carries coordinates on the wire.
type GeoPointDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CreateOrderRequest places a new order on behalf of the authenticated
// customer.
type CreateOrderRequest struct {
	BusinessID         string      `json:"business_id"`
	RestaurantLocation GeoPointDTO `json:"restaurant_location"`
	DeliveryLocation   GeoPointDTO `json:"delivery_location"`
	PreferredVehicle   *string     `json:"preferred_vehicle,omitempty"`
}

// ChangeOrderStatusRequest asks for a lifecycle transition.
type ChangeOrderStatusRequest struct {
	Status string `json:"status"`
}

// RegisterAgentRequest enrolls a new delivery agent.
type RegisterAgentRequest struct {
	Name    string `json:"name"`
	Vehicle string `json:"vehicle"`
}

// SetAvailabilityRequest toggles whether the agent accepts offers.
type SetAvailabilityRequest struct {
	Available bool `json:"available"`
}

// ReportLocationRequest is the HTTP fallback for agents that cannot hold a
// WebSocket open. OrderID is optional; when set it must be the agent's
// active order.
type ReportLocationRequest struct {
	OrderID   string    `json:"order_id,omitempty"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderLocationResponse is the last known position of the agent working an
// order, served from the in-memory cache.
type OrderLocationResponse struct {
	OrderID string    `json:"order_id"`
	AgentID string    `json:"agent_id"`
	Lat     float64   `json:"lat"`
	Lng     float64   `json:"lng"`
	At      time.Time `json:"at"`
}

// StatusChangeDTO is one entry of an order's status history.
type StatusChangeDTO struct {
	Status string    `json:"status"`
	At     time.Time `json:"at"`
}

// OrderResponse is the full order representation returned by reads and by
// the commands that mutate an order.
type OrderResponse struct {
	ID                 string            `json:"id"`
	CustomerID         string            `json:"customer_id"`
	BusinessID         string            `json:"business_id"`
	AgentID            *string           `json:"agent_id,omitempty"`
	RestaurantLocation GeoPointDTO       `json:"restaurant_location"`
	DeliveryLocation   GeoPointDTO       `json:"delivery_location"`
	Status             string            `json:"status"`
	Version            int               `json:"version"`
	History            []StatusChangeDTO `json:"history,omitempty"`
}

// AgentResponse represents one available agent.
type AgentResponse struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Vehicle        string       `json:"vehicle"`
	Location       *GeoPointDTO `json:"location,omitempty"`
	LastLocationAt *time.Time   `json:"last_location_at,omitempty"`
}

// RegisterAgentResponse returns the new agent's identity and a token for the
// realtime connection.
type RegisterAgentResponse struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

// CreateOrderResponse returns the identity of a freshly placed order.
type CreateOrderResponse struct {
	ID string `json:"id"`
}

func orderResponseFromDomain(o *order.Order) OrderResponse {
	response := OrderResponse{
		ID:         o.ID().String(),
		CustomerID: o.CustomerID().String(),
		BusinessID: o.BusinessID().String(),
		RestaurantLocation: GeoPointDTO{
			Lat: o.RestaurantLocation().Lat(),
			Lng: o.RestaurantLocation().Lng(),
		},
		DeliveryLocation: GeoPointDTO{
			Lat: o.DeliveryLocation().Lat(),
			Lng: o.DeliveryLocation().Lng(),
		},
		Status:  o.Status().String(),
		Version: o.Version(),
	}

	if agentID := o.AgentID(); agentID != nil {
		id := agentID.String()
		response.AgentID = &id
	}

	for _, change := range o.History() {
		response.History = append(response.History, StatusChangeDTO{
			Status: change.Status().String(),
			At:     change.At(),
		})
	}

	return response
}

func orderResponseFromQuery(row queries.GetOrderQueryResponse) OrderResponse {
	response := OrderResponse{
		ID:         row.ID.String(),
		CustomerID: row.CustomerID.String(),
		BusinessID: row.BusinessID.String(),
		RestaurantLocation: GeoPointDTO{
			Lat: row.RestaurantLocation.Lat(),
			Lng: row.RestaurantLocation.Lng(),
		},
		DeliveryLocation: GeoPointDTO{
			Lat: row.DeliveryLocation.Lat(),
			Lng: row.DeliveryLocation.Lng(),
		},
		Status:  row.Status.String(),
		Version: row.Version,
	}

	if row.AgentID != nil {
		id := row.AgentID.String()
		response.AgentID = &id
	}

	for _, change := range row.History {
		response.History = append(response.History, StatusChangeDTO{
			Status: change.Status.String(),
			At:     change.At,
		})
	}

	return response
}

func agentResponseFromQuery(row queries.GetAvailableAgentsQueryResponse) AgentResponse {
	response := AgentResponse{
		ID:             row.ID.String(),
		Name:           row.Name,
		Vehicle:        row.Vehicle.String(),
		LastLocationAt: row.LastLocationAt,
	}

	if row.Location != nil {
		response.Location = &GeoPointDTO{
			Lat: row.Location.Lat(),
			Lng: row.Location.Lng(),
		}
	}

	return response
}
