// Package ws carries the realtime protocol over WebSocket connections.
//
// A connection authenticates with its first frame, which must carry a JWT
// token. After that the client may join and leave order streams and, for
// agents, push location pings. Outbound traffic is the fan-out of the
// realtime package plus direct offer and taken events for agents.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/auth"
	"dispatch/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Token auth happens on the first frame; the origin check is left
		// to the deployment's reverse proxy.
		return true
	},
}

// Hub owns all live WebSocket connections. It bridges them to the realtime
// registry and implements realtime.DirectSender for agent-addressed pushes.
type Hub struct {
	registry  *realtime.Registry
	policy    *realtime.JoinPolicy
	locations *realtime.Hub

	reportLocationHandler commands.ReportLocationCommandHandler

	jwtService *auth.JWTService
	log        *slog.Logger

	mu      sync.RWMutex
	clients map[string]*Client            // connID -> client
	byUser  map[string]map[string]*Client // userID -> connID -> client
}

func NewHub(
	registry *realtime.Registry,
	policy *realtime.JoinPolicy,
	locations *realtime.Hub,
	reportLocationHandler commands.ReportLocationCommandHandler,
	jwtService *auth.JWTService,
	log *slog.Logger,
) *Hub {
	return &Hub{
		registry:              registry,
		policy:                policy,
		locations:             locations,
		reportLocationHandler: reportLocationHandler,
		jwtService:            jwtService,
		log:                   log,
		clients:               make(map[string]*Client),
		byUser:                make(map[string]map[string]*Client),
	}
}

// ServeWS handles GET /ws: upgrades the connection, authenticates the first
// frame, and starts the read and write pumps.
func (h *Hub) ServeWS(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return nil
	}

	actor, ok := h.authenticate(conn)
	if !ok {
		_ = conn.Close()
		return nil
	}

	client := &Client{
		id:    uuid.NewString(),
		actor: actor,
		conn:  conn,
		send:  make(chan []byte, sendQueueSize),
		hub:   h,
		log:   h.log,
	}

	h.mu.Lock()
	h.clients[client.id] = client
	userID := actor.ID().String()
	if h.byUser[userID] == nil {
		h.byUser[userID] = make(map[string]*Client)
	}
	h.byUser[userID][client.id] = client
	h.mu.Unlock()

	h.log.Info("websocket connected",
		"connId", client.id,
		"userId", userID,
		"role", actor.Role().String(),
	)

	if ack, ackErr := marshalMessage(typeAuthenticated, map[string]string{"user_id": userID}); ackErr == nil {
		client.enqueue(ack)
	}

	go client.writePump()
	go client.readPump()

	return nil
}

// authenticate reads the first frame, which must be {"token": "..."},
// within the auth deadline.
func (h *Hub) authenticate(conn *websocket.Conn) (order.Actor, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(authTimeout))

	var frame struct {
		Token string `json:"token"`
	}
	if err := conn.ReadJSON(&frame); err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "auth timeout"))
		return order.Actor{}, false
	}

	claims, err := h.jwtService.ValidateToken(frame.Token)
	if err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, errorMessage("invalid token"))
		return order.Actor{}, false
	}

	actor, err := h.jwtService.Actor(claims)
	if err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, errorMessage("invalid token"))
		return order.Actor{}, false
	}

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))

	return actor, true
}

// unregister tears down everything the connection owned: its registry
// subscriptions, its hub bookkeeping, and its send queue.
func (h *Hub) unregister(client *Client) {
	h.registry.DropConnection(client.id)

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.id]; !ok {
		return
	}
	delete(h.clients, client.id)

	userID := client.actor.ID().String()
	delete(h.byUser[userID], client.id)
	if len(h.byUser[userID]) == 0 {
		delete(h.byUser, userID)
	}

	client.closeSend()
	h.log.Info("websocket disconnected", "connId", client.id, "userId", userID)
}

func (h *Hub) handleMessage(client *Client, message envelope) {
	switch message.Type {
	case typeJoinOrder:
		h.handleJoin(client, message.Data)
	case typeLeaveOrder:
		h.handleLeave(client, message.Data)
	case typeLocationPing:
		h.handleLocationPing(client, message.Data)
	default:
		client.enqueue(errorMessage("unknown message type: " + message.Type))
	}
}

func (h *Hub) handleJoin(client *Client, data json.RawMessage) {
	var payload joinOrderData
	if err := json.Unmarshal(data, &payload); err != nil {
		client.enqueue(errorMessage("malformed join-order"))
		return
	}

	orderID, err := kernel.UUIDFromString(payload.OrderID)
	if err != nil {
		client.enqueue(errorMessage("invalid order id"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err = h.policy.Authorize(ctx, orderID, client.actor); err != nil {
		if errors.Is(err, order.ErrForbidden) {
			client.enqueue(errorMessage("not authorized to watch this order"))
		} else {
			client.enqueue(errorMessage("order not found"))
		}
		return
	}

	sub, created := h.registry.Join(orderID, client.id, client.actor.ID(), client.actor.Role())
	if created {
		go h.forward(client, sub)
	}

	ack := joinedData{OrderID: orderID.String()}
	if last, ok := h.locations.LastLocation(orderID); ok {
		ack.LastLocation = &locationUpdateData{
			OrderID: last.OrderID.String(),
			AgentID: last.AgentID.String(),
			Lat:     last.Lat,
			Lng:     last.Lng,
			At:      last.At,
		}
	}
	if frame, ackErr := marshalMessage(typeJoined, ack); ackErr == nil {
		client.enqueue(frame)
	}
}

func (h *Hub) handleLeave(client *Client, data json.RawMessage) {
	var payload leaveOrderData
	if err := json.Unmarshal(data, &payload); err != nil {
		client.enqueue(errorMessage("malformed leave-order"))
		return
	}

	orderID, err := kernel.UUIDFromString(payload.OrderID)
	if err != nil {
		client.enqueue(errorMessage("invalid order id"))
		return
	}

	h.registry.Leave(orderID, client.id)

	if frame, ackErr := marshalMessage(typeLeft, leaveOrderData{OrderID: orderID.String()}); ackErr == nil {
		client.enqueue(frame)
	}
}

func (h *Hub) handleLocationPing(client *Client, data json.RawMessage) {
	if client.actor.Role() != order.RoleAgent {
		client.enqueue(errorMessage("only agents report locations"))
		return
	}

	var payload locationPingData
	if err := json.Unmarshal(data, &payload); err != nil {
		client.enqueue(errorMessage("malformed location-ping"))
		return
	}

	orderID, err := kernel.UUIDFromString(payload.OrderID)
	if err != nil {
		client.enqueue(errorMessage("invalid order id"))
		return
	}

	location, err := kernel.NewGeoPoint(payload.Lat, payload.Lng)
	if err != nil {
		client.enqueue(errorMessage("invalid coordinates"))
		return
	}

	command, err := commands.NewReportLocationCommand(client.actor.ID(), &orderID, location, payload.Timestamp)
	if err != nil {
		client.enqueue(errorMessage("invalid location-ping"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Stale pings are dropped without feedback, so outcome is not reported.
	if _, err = h.reportLocationHandler.Handle(ctx, command); err != nil {
		if errors.Is(err, commands.ErrPingOrderMismatch) {
			client.enqueue(errorMessage("order is not your active order"))
		}
		h.log.Warn("location ping rejected",
			"agentId", client.actor.ID().String(),
			"error", err,
		)
	}
}

// forward bridges one subscription onto the connection's send queue. Status
// frames must fit or the client is dropped; location frames are skipped when
// the queue is full, the hub already keeps only the freshest positions.
func (h *Hub) forward(client *Client, sub *realtime.Subscription) {
	for {
		select {
		case event := <-sub.StatusEvents():
			frame, err := statusChangedMessage(event)
			if err != nil {
				continue
			}
			if !client.enqueue(frame) {
				h.log.Warn("dropping slow websocket client", "connId", client.id)
				_ = client.conn.Close()
				return
			}

		case event := <-sub.LocationEvents():
			if frame, err := locationUpdateMessage(event); err == nil {
				client.enqueue(frame)
			}

		case <-sub.Done():
			return
		}
	}
}

// SendOffer implements realtime.DirectSender.
func (h *Hub) SendOffer(agentID kernel.UUID, event realtime.OfferEvent) {
	frame, err := marshalMessage(typeOrderOffered, orderOfferedData{
		OrderID: event.OrderID.String(),
		RestaurantLocation: geoPointData{
			Lat: event.RestaurantLocation.Lat(),
			Lng: event.RestaurantLocation.Lng(),
		},
		DeliveryLocation: geoPointData{
			Lat: event.DeliveryLocation.Lat(),
			Lng: event.DeliveryLocation.Lng(),
		},
	})
	if err != nil {
		return
	}

	h.sendToUser(agentID.String(), frame)
}

// SendTaken implements realtime.DirectSender.
func (h *Hub) SendTaken(agentID kernel.UUID, event realtime.TakenEvent) {
	frame, err := marshalMessage(typeOrderTaken, orderTakenData{OrderID: event.OrderID.String()})
	if err != nil {
		return
	}

	h.sendToUser(agentID.String(), frame)
}

func (h *Hub) sendToUser(userID string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.byUser[userID] {
		client.enqueue(frame)
	}
}
