package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// Notification interfaces decouple command handlers from the real-time
// fan-out layer. Implementations deliver best-effort: a slow or missing
// subscriber never fails the command that already committed.
type (
	// StatusPublisher receives committed order lifecycle events.
	StatusPublisher interface {
		// PublishStatusChanged announces a committed status write to the
		// order's subscribers and the outbound event feed.
		PublishStatusChanged(ctx context.Context, o *order.Order)

		// PublishOrderTaken announces a won assignment. Losers are the
		// agents whose open offer for the order just became void.
		PublishOrderTaken(ctx context.Context, o *order.Order, losers []kernel.UUID)

		// PublishOffer pushes a dispatch offer to the listed agents.
		PublishOffer(ctx context.Context, o *order.Order, agentIDs []kernel.UUID)
	}

	// LocationBroadcaster receives accepted agent position reports for
	// fan-out to the order's subscribers.
	LocationBroadcaster interface {
		Broadcast(orderID kernel.UUID, agentID kernel.UUID, location kernel.GeoPoint, at time.Time)
	}
)
