package commands

import (
	"context"
	"errors"
)

// ErrPingOrderMismatch is returned when a ping names an order that is not
// the reporting agent's active order.
var ErrPingOrderMismatch = errors.New("location ping does not match the agent's active order")

// ReportLocationCommandHandler ingests agent position pings.
//
// An accepted ping updates the agent's last-known position and, when the
// agent carries an active order, is broadcast to that order's subscribers.
// A ping whose timestamp does not advance past the last accepted one is
// dropped: Handle returns (false, nil) and nothing is persisted or
// broadcast. The caller decides how loudly to report the drop; by contract
// it is a debug-level event, not an error. A ping that names an order other
// than the agent's active one fails with ErrPingOrderMismatch.
type ReportLocationCommandHandler struct {
	uowFactory  AgentUoWFactory
	broadcaster LocationBroadcaster
}

// NewReportLocationCommandHandler creates a handler for position ingestion.
func NewReportLocationCommandHandler(
	uowFactory AgentUoWFactory,
	broadcaster LocationBroadcaster,
) ReportLocationCommandHandler {
	return ReportLocationCommandHandler{
		uowFactory:  uowFactory,
		broadcaster: broadcaster,
	}
}

// Handle processes the ping. Returns whether the ping was accepted.
func (h ReportLocationCommandHandler) Handle(ctx context.Context, command ReportLocationCommand) (bool, error) {
	if err := command.Validate(); err != nil {
		return false, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	agentRepo := uow.AgentRepository()

	a, err := agentRepo.Get(ctx, command.AgentID())
	if err != nil {
		return false, err
	}

	if claimed := command.OrderID(); claimed != nil {
		active := a.ActiveOrderID()
		if active == nil || !active.IsEqual(*claimed) {
			return false, ErrPingOrderMismatch
		}
	}

	accepted, err := a.UpdateLocation(command.Location(), command.At())
	if err != nil {
		return false, err
	}
	if !accepted {
		return false, nil
	}

	if err = agentRepo.Update(ctx, a); err != nil {
		return false, err
	}

	if err = uow.Commit(ctx); err != nil {
		return false, err
	}

	if activeOrder := a.ActiveOrderID(); activeOrder != nil {
		h.broadcaster.Broadcast(*activeOrder, a.ID(), command.Location(), command.At())
	}

	return true, nil
}
