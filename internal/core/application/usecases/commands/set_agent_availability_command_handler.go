package commands

import (
	"context"
)

// SetAgentAvailabilityCommandHandler toggles agent availability.
type SetAgentAvailabilityCommandHandler struct {
	uowFactory AgentUoWFactory
}

// NewSetAgentAvailabilityCommandHandler creates a handler for availability toggles.
func NewSetAgentAvailabilityCommandHandler(uowFactory AgentUoWFactory) SetAgentAvailabilityCommandHandler {
	return SetAgentAvailabilityCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle applies the availability change within a transaction.
// Returns agent.ErrAgentBusy when trying to free an agent that still
// carries an active order.
func (h SetAgentAvailabilityCommandHandler) Handle(ctx context.Context, command SetAgentAvailabilityCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	agentRepo := uow.AgentRepository()

	a, err := agentRepo.Get(ctx, command.AgentID())
	if err != nil {
		return err
	}

	if err = a.SetAvailable(command.Available()); err != nil {
		return err
	}

	if err = agentRepo.Update(ctx, a); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
