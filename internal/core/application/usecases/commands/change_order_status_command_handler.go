package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
)

// ChangeOrderStatusCommandHandler applies actor-requested status transitions.
//
// The aggregate enforces transition legality and authorization; the handler
// adds the optimistic concurrency check, releases the agent when the order
// reaches a terminal status, and announces the committed write to the
// real-time layer.
//
// Example:
//
//	handler := NewChangeOrderStatusCommandHandler(uowFactory, board, publisher)
//	updated, err := handler.Handle(ctx, cmd)
//	switch {
//	case errors.Is(err, order.ErrInvalidTransition):
//	    // 422
//	case errors.Is(err, order.ErrForbidden):
//	    // 403
//	case errors.Is(err, ports.ErrStaleVersion):
//	    // 409, caller may retry against the fresh version
//	}
type ChangeOrderStatusCommandHandler struct {
	uowFactory UoWFactory
	board      *services.OfferBoard
	publisher  StatusPublisher
}

// NewChangeOrderStatusCommandHandler creates a handler for status transitions.
func NewChangeOrderStatusCommandHandler(
	uowFactory UoWFactory,
	board *services.OfferBoard,
	publisher StatusPublisher,
) ChangeOrderStatusCommandHandler {
	return ChangeOrderStatusCommandHandler{
		uowFactory: uowFactory,
		board:      board,
		publisher:  publisher,
	}
}

// Handle processes the status change command and returns the updated order.
//
// Requesting the status the order is already in is a no-op that returns the
// order unchanged. A conditional write that loses to a concurrent writer
// returns ports.ErrStaleVersion with nothing persisted.
func (h ChangeOrderStatusCommandHandler) Handle(
	ctx context.Context,
	command ChangeOrderStatusCommand,
) (*order.Order, error) {
	if err := command.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()

	o, err := orderRepo.Get(ctx, command.OrderID())
	if err != nil {
		return nil, err
	}

	// captured before the change because cancellation clears the agent
	agentBefore := o.AgentID()
	expectedVersion := o.Version()

	changed, err := o.ChangeStatus(command.Requested(), command.Actor(), time.Now())
	if err != nil {
		return nil, err
	}
	if !changed {
		return o, nil
	}

	if err = orderRepo.UpdateConditional(ctx, o, expectedVersion); err != nil {
		return nil, err
	}

	if o.Status().IsTerminal() && agentBefore != nil {
		if err = h.releaseAgent(ctx, uow, *agentBefore, o.ID()); err != nil {
			return nil, err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	if o.Status() == order.Cancelled {
		h.board.Close(o.ID())
	}
	h.publisher.PublishStatusChanged(ctx, o)

	return o, nil
}

func (h ChangeOrderStatusCommandHandler) releaseAgent(
	ctx context.Context,
	uow UoW,
	agentID kernel.UUID,
	orderID kernel.UUID,
) error {
	agentRepo := uow.AgentRepository()

	a, err := agentRepo.Get(ctx, agentID)
	if err != nil {
		return err
	}

	if err = a.ReleaseOrder(orderID); err != nil {
		return err
	}

	return agentRepo.Update(ctx, a)
}
