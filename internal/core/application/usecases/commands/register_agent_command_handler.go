package commands

import (
	"context"

	"dispatch/internal/core/domain/model/agent"
)

// RegisterAgentCommandHandler handles agent registration. Creates and
// persists a new available agent.
type RegisterAgentCommandHandler struct {
	uowFactory AgentUoWFactory
}

// NewRegisterAgentCommandHandler creates a handler for agent registration.
func NewRegisterAgentCommandHandler(uowFactory AgentUoWFactory) RegisterAgentCommandHandler {
	return RegisterAgentCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle creates the agent and persists it within a transaction.
func (h RegisterAgentCommandHandler) Handle(ctx context.Context, command RegisterAgentCommand) error {
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

	a, err := agent.NewAgent(command.AgentID(), command.Name(), command.Vehicle())
	if err != nil {
		return err
	}

	if err = uow.AgentRepository().Add(ctx, a); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	return nil
}
