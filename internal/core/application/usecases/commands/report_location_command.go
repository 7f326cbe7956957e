package commands

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrReportLocationCommandIsNotConstructed = errors.New(
	"ReportLocationCommand must be created via NewReportLocationCommand constructor",
)

// ReportLocationCommand carries an agent's position ping. The timestamp is
// the client's capture time and orders pings; pings that arrive out of
// order are dropped rather than rewinding the agent's position. The order
// id is optional; when present it must match the agent's active order.
type ReportLocationCommand struct { //nolint:recvcheck //using for validation
	agentID  kernel.UUID
	orderID  *kernel.UUID
	location kernel.GeoPoint
	at       time.Time

	guard guard.ConstructorGuard
}

// NewReportLocationCommand creates a validated position report.
func NewReportLocationCommand(
	agentID kernel.UUID,
	orderID *kernel.UUID,
	location kernel.GeoPoint,
	at time.Time,
) (ReportLocationCommand, error) {
	command := ReportLocationCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		command.setAgentID(agentID),
		command.setOrderID(orderID),
		command.setLocation(location),
		command.setAt(at),
	); err != nil {
		return ReportLocationCommand{}, err
	}

	return command, nil
}

// Validate ensures the command was created through the constructor.
func (c ReportLocationCommand) Validate() error {
	return c.guard.Validate(ErrReportLocationCommandIsNotConstructed)
}

// AgentID returns the reporting agent.
func (c ReportLocationCommand) AgentID() kernel.UUID {
	return c.agentID
}

// OrderID returns the order the ping claims to track, or nil when the ping
// did not name one.
func (c ReportLocationCommand) OrderID() *kernel.UUID {
	return c.orderID
}

// Location returns the reported position.
func (c ReportLocationCommand) Location() kernel.GeoPoint {
	return c.location
}

// At returns the client capture timestamp.
func (c ReportLocationCommand) At() time.Time {
	return c.at
}

func (c *ReportLocationCommand) setAgentID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.agentID = id
	return nil
}

func (c *ReportLocationCommand) setOrderID(id *kernel.UUID) error {
	if id == nil {
		return nil
	}
	if err := id.Validate(); err != nil {
		return err
	}
	c.orderID = id
	return nil
}

func (c *ReportLocationCommand) setLocation(location kernel.GeoPoint) error {
	if err := location.Validate(); err != nil {
		return err
	}
	c.location = location
	return nil
}

func (c *ReportLocationCommand) setAt(at time.Time) error {
	if at.IsZero() {
		return errs.NewValueIsRequiredError("at")
	}
	c.at = at
	return nil
}
