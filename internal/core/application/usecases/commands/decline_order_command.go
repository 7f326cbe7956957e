package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrDeclineOrderCommandIsNotConstructed = errors.New(
	"DeclineOrderCommand must be created via NewDeclineOrderCommand constructor",
)

// DeclineOrderCommand represents an agent turning down a dispatch offer.
// Declines are advisory, process-local state: they stop the agent from being
// re-offered the same order but persist nothing.
type DeclineOrderCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	agentID kernel.UUID

	guard guard.ConstructorGuard
}

// NewDeclineOrderCommand creates a validated decline request.
func NewDeclineOrderCommand(orderID kernel.UUID, agentID kernel.UUID) (DeclineOrderCommand, error) {
	command := DeclineOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		command.setOrderID(orderID),
		command.setAgentID(agentID),
	); err != nil {
		return DeclineOrderCommand{}, err
	}

	return command, nil
}

// Validate ensures the command was created through the constructor.
func (c DeclineOrderCommand) Validate() error {
	return c.guard.Validate(ErrDeclineOrderCommandIsNotConstructed)
}

// OrderID returns the declined order.
func (c DeclineOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// AgentID returns the declining agent.
func (c DeclineOrderCommand) AgentID() kernel.UUID {
	return c.agentID
}

func (c *DeclineOrderCommand) setOrderID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.orderID = id
	return nil
}

func (c *DeclineOrderCommand) setAgentID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.agentID = id
	return nil
}
