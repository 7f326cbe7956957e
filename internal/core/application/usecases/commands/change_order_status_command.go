package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/guard"
)

var ErrChangeOrderStatusCommandIsNotConstructed = errors.New(
	"ChangeOrderStatusCommand must be created via NewChangeOrderStatusCommand constructor",
)

// ChangeOrderStatusCommand represents an actor's request to move an order to
// a new lifecycle status. Assignment is not requestable through this
// command; it happens only through AcceptOrderCommand.
//
// Example:
//
//	actor, _ := order.NewActor(businessID, order.RoleBusiness)
//	cmd, err := NewChangeOrderStatusCommand(orderID, order.Confirmed, actor)
//	if err != nil {
//	    return err
//	}
//	updated, err := handler.Handle(ctx, cmd)
type ChangeOrderStatusCommand struct { //nolint:recvcheck //using for validation
	orderID   kernel.UUID
	requested order.Status
	actor     order.Actor

	guard guard.ConstructorGuard
}

// NewChangeOrderStatusCommand creates a validated status change request.
func NewChangeOrderStatusCommand(
	orderID kernel.UUID,
	requested order.Status,
	actor order.Actor,
) (ChangeOrderStatusCommand, error) {
	command := ChangeOrderStatusCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		command.setOrderID(orderID),
		command.setRequested(requested),
		command.setActor(actor),
	); err != nil {
		return ChangeOrderStatusCommand{}, err
	}

	return command, nil
}

// Validate ensures the command was created through the constructor.
func (c ChangeOrderStatusCommand) Validate() error {
	return c.guard.Validate(ErrChangeOrderStatusCommandIsNotConstructed)
}

// OrderID returns the target order's ID.
func (c ChangeOrderStatusCommand) OrderID() kernel.UUID {
	return c.orderID
}

// Requested returns the requested status.
func (c ChangeOrderStatusCommand) Requested() order.Status {
	return c.requested
}

// Actor returns the requesting actor.
func (c ChangeOrderStatusCommand) Actor() order.Actor {
	return c.actor
}

func (c *ChangeOrderStatusCommand) setOrderID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.orderID = id
	return nil
}

func (c *ChangeOrderStatusCommand) setRequested(status order.Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	c.requested = status
	return nil
}

func (c *ChangeOrderStatusCommand) setActor(actor order.Actor) error {
	if err := actor.ID().Validate(); err != nil {
		return err
	}
	if err := actor.Role().Validate(); err != nil {
		return err
	}
	c.actor = actor
	return nil
}
