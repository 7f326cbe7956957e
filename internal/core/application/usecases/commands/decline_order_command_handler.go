package commands

import (
	"context"

	"dispatch/internal/core/domain/services"
)

// DeclineOrderCommandHandler records offer declines on the offer board.
// No persistence is involved: a decline only shapes which agents the next
// offer round reaches, and losing it on restart is harmless.
type DeclineOrderCommandHandler struct {
	board *services.OfferBoard
}

// NewDeclineOrderCommandHandler creates a handler for decline operations.
func NewDeclineOrderCommandHandler(board *services.OfferBoard) DeclineOrderCommandHandler {
	return DeclineOrderCommandHandler{
		board: board,
	}
}

// Handle records the decline. It is idempotent.
func (h DeclineOrderCommandHandler) Handle(_ context.Context, command DeclineOrderCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	h.board.Decline(command.OrderID(), command.AgentID())

	return nil
}
