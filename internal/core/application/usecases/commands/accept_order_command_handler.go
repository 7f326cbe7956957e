package commands

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/metrics"
)

// ErrOrderAlreadyAssigned is returned when an accept loses the race: the
// order is no longer ready, either because another agent won it or because
// it left the ready pool entirely.
var ErrOrderAlreadyAssigned = errors.New("order is already assigned")

// AcceptOrderCommandHandler converts a ready order into an assigned order
// with exactly one agent, safely under concurrent accept attempts.
//
// The at-most-one-assignment guarantee rests on the repository's conditional
// write: the update only lands if the stored version still equals the one
// the handler read. All losing accepts observe the precondition failure and
// are reported as ErrOrderAlreadyAssigned; a conditional-write loss to a
// non-assignment writer surfaces as ports.ErrStaleVersion instead.
//
// Example:
//
//	handler := NewAcceptOrderCommandHandler(uowFactory, board, publisher)
//	assigned, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, ErrOrderAlreadyAssigned) {
//	    // another agent won
//	}
type AcceptOrderCommandHandler struct {
	uowFactory UoWFactory
	board      *services.OfferBoard
	publisher  StatusPublisher
}

// NewAcceptOrderCommandHandler creates a handler for accept operations.
func NewAcceptOrderCommandHandler(
	uowFactory UoWFactory,
	board *services.OfferBoard,
	publisher StatusPublisher,
) AcceptOrderCommandHandler {
	return AcceptOrderCommandHandler{
		uowFactory: uowFactory,
		board:      board,
		publisher:  publisher,
	}
}

// Handle processes the accept command and returns the assigned order.
func (h AcceptOrderCommandHandler) Handle(ctx context.Context, command AcceptOrderCommand) (*order.Order, error) {
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
	agentRepo := uow.AgentRepository()

	o, err := orderRepo.Get(ctx, command.OrderID())
	if err != nil {
		return nil, err
	}
	if o.Status() != order.Ready {
		metrics.AcceptConflicts.Inc()
		return nil, ErrOrderAlreadyAssigned
	}

	a, err := agentRepo.Get(ctx, command.AgentID())
	if err != nil {
		return nil, err
	}

	if err = a.TakeOrder(o.ID()); err != nil {
		return nil, err
	}

	expectedVersion := o.Version()
	if err = o.Assign(a.ID(), time.Now()); err != nil {
		return nil, err
	}

	if err = orderRepo.UpdateConditional(ctx, o, expectedVersion); err != nil {
		if errors.Is(err, ports.ErrStaleVersion) {
			return nil, h.classifyConflict(ctx, command.OrderID())
		}
		return nil, err
	}

	if err = agentRepo.Update(ctx, a); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.AcceptWins.Inc()

	losers := h.closeOffers(o.ID(), a.ID())
	h.publisher.PublishOrderTaken(ctx, o, losers)
	h.publisher.PublishStatusChanged(ctx, o)

	return o, nil
}

// classifyConflict distinguishes losing the assignment race from losing to
// an unrelated concurrent write. The order is re-read outside the failed
// transaction.
func (h AcceptOrderCommandHandler) classifyConflict(ctx context.Context, orderID kernel.UUID) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return ports.ErrStaleVersion
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	fresh, err := uow.OrderRepository().Get(ctx, orderID)
	if err != nil {
		return ports.ErrStaleVersion
	}
	if fresh.Status() != order.Ready {
		metrics.AcceptConflicts.Inc()
		return ErrOrderAlreadyAssigned
	}
	return ports.ErrStaleVersion
}

// closeOffers drops all offer state for the order and returns the agents
// still holding an open offer, minus the winner.
func (h AcceptOrderCommandHandler) closeOffers(orderID kernel.UUID, winner kernel.UUID) []kernel.UUID {
	var losers []kernel.UUID
	for _, id := range h.board.Close(orderID) {
		if !id.IsEqual(winner) {
			losers = append(losers, id)
		}
	}
	return losers
}
