package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrRegisterAgentCommandIsNotConstructed = errors.New(
	"RegisterAgentCommand must be created via NewRegisterAgentCommand constructor",
)

// RegisterAgentCommand represents a request to register a new delivery
// agent. New agents start available, with no location until their first
// ping.
type RegisterAgentCommand struct { //nolint:recvcheck //using for validation
	agentID kernel.UUID
	name    string
	vehicle kernel.Vehicle

	guard guard.ConstructorGuard
}

// NewRegisterAgentCommand creates a validated agent registration request.
// Automatically generates a unique ID for the agent.
func NewRegisterAgentCommand(name string, vehicle kernel.Vehicle) (RegisterAgentCommand, error) {
	command := RegisterAgentCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		command.setAgentID(kernel.NewUUID()),
		command.setName(name),
		command.setVehicle(vehicle),
	); err != nil {
		return RegisterAgentCommand{}, err
	}

	return command, nil
}

// Validate ensures the command was created through the constructor.
func (c RegisterAgentCommand) Validate() error {
	return c.guard.Validate(ErrRegisterAgentCommandIsNotConstructed)
}

// AgentID returns the generated agent ID.
func (c RegisterAgentCommand) AgentID() kernel.UUID {
	return c.agentID
}

// Name returns the agent's display name.
func (c RegisterAgentCommand) Name() string {
	return c.name
}

// Vehicle returns the agent's vehicle kind.
func (c RegisterAgentCommand) Vehicle() kernel.Vehicle {
	return c.vehicle
}

func (c *RegisterAgentCommand) setAgentID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.agentID = id
	return nil
}

func (c *RegisterAgentCommand) setName(name string) error {
	if name == "" {
		return errs.NewValueIsRequiredError("name")
	}
	c.name = name
	return nil
}

func (c *RegisterAgentCommand) setVehicle(vehicle kernel.Vehicle) error {
	if err := vehicle.Validate(); err != nil {
		return err
	}
	c.vehicle = vehicle
	return nil
}
