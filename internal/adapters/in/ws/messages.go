package ws

import (
	"encoding/json"
	"time"

	"dispatch/internal/realtime"
)

// Inbound message types.
const (
	typeJoinOrder    = "join-order"
	typeLeaveOrder   = "leave-order"
	typeLocationPing = "location-ping"
)

// Outbound message types.
const (
	typeAuthenticated  = "authenticated"
	typeJoined         = "joined"
	typeLeft           = "left"
	typeStatusChanged  = "status-changed"
	typeLocationUpdate = "location-update"
	typeOrderOffered   = "order-offered"
	typeOrderTaken     = "order-taken"
	typeError          = "error"
)

// envelope is the frame around every message in both directions.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type joinOrderData struct {
	OrderID string `json:"order_id"`
}

type leaveOrderData struct {
	OrderID string `json:"order_id"`
}

type locationPingData struct {
	OrderID   string    `json:"order_id"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
}

type geoPointData struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type statusChangedData struct {
	OrderID string    `json:"order_id"`
	Status  string    `json:"status"`
	AgentID *string   `json:"agent_id,omitempty"`
	Version int       `json:"version"`
	At      time.Time `json:"at"`
}

type locationUpdateData struct {
	OrderID string    `json:"order_id"`
	AgentID string    `json:"agent_id"`
	Lat     float64   `json:"lat"`
	Lng     float64   `json:"lng"`
	At      time.Time `json:"at"`
}

type orderOfferedData struct {
	OrderID            string       `json:"order_id"`
	RestaurantLocation geoPointData `json:"restaurant_location"`
	DeliveryLocation   geoPointData `json:"delivery_location"`
}

type orderTakenData struct {
	OrderID string `json:"order_id"`
}

// joinedData acknowledges a join. LastLocation primes late joiners with the
// newest broadcast position, if there is one.
type joinedData struct {
	OrderID      string              `json:"order_id"`
	LastLocation *locationUpdateData `json:"last_location,omitempty"`
}

type errorData struct {
	Message string `json:"message"`
}

func marshalMessage(messageType string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return json.Marshal(envelope{Type: messageType, Data: raw})
}

func statusChangedMessage(event realtime.StatusEvent) ([]byte, error) {
	data := statusChangedData{
		OrderID: event.OrderID.String(),
		Status:  event.Status.String(),
		Version: event.Version,
		At:      event.At,
	}
	if event.AgentID != nil {
		agentID := event.AgentID.String()
		data.AgentID = &agentID
	}

	return marshalMessage(typeStatusChanged, data)
}

func locationUpdateMessage(event realtime.LocationEvent) ([]byte, error) {
	return marshalMessage(typeLocationUpdate, locationUpdateData{
		OrderID: event.OrderID.String(),
		AgentID: event.AgentID.String(),
		Lat:     event.Lat,
		Lng:     event.Lng,
		At:      event.At,
	})
}

func errorMessage(message string) []byte {
	raw, _ := marshalMessage(typeError, errorData{Message: message})
	return raw
}
