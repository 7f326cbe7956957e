package realtime

import (
	"log/slog"
	"sync"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/metrics"
)

type trackKey struct {
	orderID kernel.UUID
	agentID kernel.UUID
}

// Hub broadcasts accepted courier positions to an order's subscribers.
//
// Updates are ordered per (order, agent) pair by the client-side timestamp:
// a report not strictly newer than the last accepted one is dropped without
// error, so retries and out of order delivery can never make a marker jump
// backwards. The newest position per order is cached for late joiners.
type Hub struct {
	registry *Registry
	logger   *slog.Logger

	mu          sync.Mutex
	lastByTrack map[trackKey]time.Time
	lastByOrder map[kernel.UUID]LocationEvent
}

func NewHub(registry *Registry, logger *slog.Logger) *Hub {
	return &Hub{
		registry:    registry,
		logger:      logger,
		lastByTrack: make(map[trackKey]time.Time),
		lastByOrder: make(map[kernel.UUID]LocationEvent),
	}
}

// Broadcast fans a position report out to the order's subscribers. Stale
// reports are dropped silently. Subscriber queues are bounded: when one is
// full the oldest queued update is discarded so the reader converges on the
// freshest position, and the broadcast never blocks.
func (h *Hub) Broadcast(orderID kernel.UUID, agentID kernel.UUID, location kernel.GeoPoint, at time.Time) {
	event, ok := h.accept(orderID, agentID, location, at)
	if !ok {
		h.logger.Debug("dropping stale location ping",
			"orderId", orderID.String(),
			"agentId", agentID.String(),
			"at", at,
		)
		metrics.StaleLocationPings.Inc()

		return
	}

	for _, sub := range h.registry.Subscribers(orderID) {
		h.offer(sub, event)
	}
}

// LastLocation returns the newest broadcast position of an order, if any.
// It primes subscribers that join mid-delivery.
func (h *Hub) LastLocation(orderID kernel.UUID) (LocationEvent, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	event, ok := h.lastByOrder[orderID]

	return event, ok
}

// Forget drops the cached state of an order. Called once the order reaches a
// terminal status.
func (h *Hub) Forget(orderID kernel.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.lastByOrder, orderID)
	for key := range h.lastByTrack {
		if key.orderID == orderID {
			delete(h.lastByTrack, key)
		}
	}
}

func (h *Hub) accept(orderID kernel.UUID, agentID kernel.UUID, location kernel.GeoPoint, at time.Time) (LocationEvent, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := trackKey{orderID: orderID, agentID: agentID}
	if last, ok := h.lastByTrack[key]; ok && !at.After(last) {
		return LocationEvent{}, false
	}
	h.lastByTrack[key] = at

	event := LocationEvent{
		OrderID: orderID,
		AgentID: agentID,
		Lat:     location.Lat(),
		Lng:     location.Lng(),
		At:      at,
	}
	h.lastByOrder[orderID] = event

	return event, true
}

func (h *Hub) offer(sub *Subscription, event LocationEvent) {
	select {
	case sub.locationCh <- event:
		return
	default:
	}

	// Queue full: make room by discarding the oldest queued update.
	select {
	case <-sub.locationCh:
		metrics.DroppedLocationEvents.Inc()
	default:
	}

	select {
	case sub.locationCh <- event:
	default:
		metrics.DroppedLocationEvents.Inc()
	}
}
