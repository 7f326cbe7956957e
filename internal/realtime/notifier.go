package realtime

import (
	"context"
	"log/slog"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/metrics"
)

const defaultStatusTimeout = 2 * time.Second

type (
	// DirectSender pushes agent-addressed events to a connected agent.
	// Delivery is best-effort: an offline agent simply misses the push and
	// learns the outcome when it next acts.
	DirectSender interface {
		SendOffer(agentID kernel.UUID, event OfferEvent)
		SendTaken(agentID kernel.UUID, event TakenEvent)
	}

	// OutboundSink forwards status events to an external consumer, such as
	// a message broker feeding push notification services.
	OutboundSink interface {
		SendStatusChanged(ctx context.Context, event StatusEvent) error
	}
)

// Notifier fans committed order events out to live subscribers.
//
// Status delivery is reliable per subscriber: events are sent in commit
// order and the notifier blocks up to a short timeout on a full queue. A
// subscriber that does not drain within the timeout is evicted so one dead
// reader cannot stall the stream for everyone else.
type Notifier struct {
	registry *Registry
	hub      *Hub
	direct   DirectSender
	sink     OutboundSink
	logger   *slog.Logger
	timeout  time.Duration
}

// NewNotifier wires the fan-out layer. direct and sink may be nil when the
// corresponding transport is not configured. A non-positive statusTimeout
// falls back to the default.
func NewNotifier(
	registry *Registry,
	hub *Hub,
	direct DirectSender,
	sink OutboundSink,
	logger *slog.Logger,
	statusTimeout time.Duration,
) *Notifier {
	if statusTimeout <= 0 {
		statusTimeout = defaultStatusTimeout
	}

	return &Notifier{
		registry: registry,
		hub:      hub,
		direct:   direct,
		sink:     sink,
		logger:   logger,
		timeout:  statusTimeout,
	}
}

// PublishStatusChanged announces a committed status write to the order's
// subscribers and the outbound sink. On a terminal status it tears down the
// order's room and cached locations after the final event went out.
func (n *Notifier) PublishStatusChanged(ctx context.Context, o *order.Order) {
	event := StatusEvent{
		OrderID: o.ID(),
		Status:  o.Status(),
		AgentID: o.AgentID(),
		Version: o.Version(),
		At:      time.Now().UTC(),
	}
	metrics.StatusEventsPublished.Inc()

	for _, sub := range n.registry.Subscribers(o.ID()) {
		n.deliver(sub, event)
	}

	if n.sink != nil {
		if err := n.sink.SendStatusChanged(ctx, event); err != nil {
			n.logger.Error("outbound status event failed",
				"orderId", o.ID().String(),
				"status", o.Status().String(),
				"error", err,
			)
		}
	}

	if o.Status().IsTerminal() {
		n.registry.CloseOrder(o.ID())
		n.hub.Forget(o.ID())
	}
}

// PublishOrderTaken tells the losing agents that the offered order is gone.
// The winner and the order's subscribers learn the outcome from the status
// event published alongside.
func (n *Notifier) PublishOrderTaken(_ context.Context, o *order.Order, losers []kernel.UUID) {
	if n.direct == nil {
		return
	}

	event := TakenEvent{OrderID: o.ID()}
	for _, agentID := range losers {
		n.direct.SendTaken(agentID, event)
	}
}

// PublishOffer pushes a dispatch offer to the listed agents.
func (n *Notifier) PublishOffer(_ context.Context, o *order.Order, agentIDs []kernel.UUID) {
	if n.direct == nil {
		return
	}

	event := OfferEvent{
		OrderID:            o.ID(),
		RestaurantLocation: o.RestaurantLocation(),
		DeliveryLocation:   o.DeliveryLocation(),
	}
	for _, agentID := range agentIDs {
		n.direct.SendOffer(agentID, event)
	}
}

func (n *Notifier) deliver(sub *Subscription, event StatusEvent) {
	select {
	case sub.statusCh <- event:
		return
	case <-sub.done:
		return
	default:
	}

	timer := time.NewTimer(n.timeout)
	defer timer.Stop()

	select {
	case sub.statusCh <- event:
	case <-sub.done:
	case <-timer.C:
		n.logger.Warn("evicting subscriber on status delivery timeout",
			"orderId", sub.orderID.String(),
			"connId", sub.connID,
		)
		metrics.EvictedSubscribers.Inc()
		n.registry.Leave(sub.orderID, sub.connID)
	}
}
