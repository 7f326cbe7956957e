package realtime

import (
	"context"
	"fmt"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

type (
	// OrderLoader fetches the current state of an order for an
	// authorization decision.
	OrderLoader interface {
		Load(ctx context.Context, orderID kernel.UUID) (*order.Order, error)
	}

	// OfferChecker reports whether an agent currently holds an open offer
	// for an order.
	OfferChecker interface {
		HasOffered(orderID kernel.UUID, agentID kernel.UUID) bool
	}
)

// JoinPolicy decides who may subscribe to an order's event stream: the
// customer who placed it, the business that fulfils it, the assigned agent,
// or an agent holding an open offer while the order is unassigned.
type JoinPolicy struct {
	orders OrderLoader
	offers OfferChecker
}

func NewJoinPolicy(orders OrderLoader, offers OfferChecker) *JoinPolicy {
	return &JoinPolicy{orders: orders, offers: offers}
}

// Authorize returns order.ErrForbidden when the actor may not watch the
// order, or the loader's error when the order cannot be fetched.
func (p *JoinPolicy) Authorize(ctx context.Context, orderID kernel.UUID, actor order.Actor) error {
	o, err := p.orders.Load(ctx, orderID)
	if err != nil {
		return err
	}

	switch actor.Role() {
	case order.RoleCustomer:
		if actor.ID().IsEqual(o.CustomerID()) {
			return nil
		}
	case order.RoleBusiness:
		if actor.ID().IsEqual(o.BusinessID()) {
			return nil
		}
	case order.RoleAgent:
		if agentID := o.AgentID(); agentID != nil {
			if actor.ID().IsEqual(*agentID) {
				return nil
			}
		} else if p.offers.HasOffered(orderID, actor.ID()) {
			return nil
		}
	case order.RoleUnknown:
	}

	return fmt.Errorf("%w: %s %s may not watch order %s",
		order.ErrForbidden, actor.Role().String(), actor.ID().String(), orderID.String())
}
