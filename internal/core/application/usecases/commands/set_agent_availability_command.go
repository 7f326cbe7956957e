package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrSetAgentAvailabilityCommandIsNotConstructed = errors.New(
	"SetAgentAvailabilityCommand must be created via NewSetAgentAvailabilityCommand constructor",
)

// SetAgentAvailabilityCommand toggles whether an agent receives dispatch
// offers. An agent carrying an active order cannot go available.
type SetAgentAvailabilityCommand struct { //nolint:recvcheck //using for validation
	agentID   kernel.UUID
	available bool

	guard guard.ConstructorGuard
}

// NewSetAgentAvailabilityCommand creates a validated availability toggle.
func NewSetAgentAvailabilityCommand(agentID kernel.UUID, available bool) (SetAgentAvailabilityCommand, error) {
	command := SetAgentAvailabilityCommand{
		available: available,
		guard:     guard.NewConstructorGuard(),
	}

	if err := command.setAgentID(agentID); err != nil {
		return SetAgentAvailabilityCommand{}, err
	}

	return command, nil
}

// Validate ensures the command was created through the constructor.
func (c SetAgentAvailabilityCommand) Validate() error {
	return c.guard.Validate(ErrSetAgentAvailabilityCommandIsNotConstructed)
}

// AgentID returns the target agent.
func (c SetAgentAvailabilityCommand) AgentID() kernel.UUID {
	return c.agentID
}

// Available returns the requested availability.
func (c SetAgentAvailabilityCommand) Available() bool {
	return c.available
}

func (c *SetAgentAvailabilityCommand) setAgentID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.agentID = id
	return nil
}
