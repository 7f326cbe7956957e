// Package agent contains the delivery agent aggregate.
//
// An agent advertises a vehicle kind and an availability flag, carries at
// most one active order at a time, and reports its position while working.
// Holding an active order always implies unavailability; availability can
// only be regained by releasing the order.
package agent

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	// ErrAgentIsNotConstructed is returned when an Agent instance was not
	// created through NewAgent or RestoreAgent.
	ErrAgentIsNotConstructed = errors.New("Agent must be created via NewAgent or RestoreAgent constructor")

	// ErrAgentBusy is returned when an agent that already carries an
	// active order is asked to take another one.
	ErrAgentBusy = errors.New("agent already has an active order")

	// ErrAgentNotAvailable is returned when an unavailable agent is asked
	// to take an order.
	ErrAgentNotAvailable = errors.New("agent is not available")

	// ErrOrderNotHeld is returned when releasing an order the agent does
	// not hold.
	ErrOrderNotHeld = errors.New("agent does not hold this order")
)

// Agent is the aggregate root for a delivery agent.
//
// Invariant: an agent with an active order is never available. Location is
// optional until the agent reports its first ping; pings are ordered by
// their client timestamp and stale ones are ignored.
type Agent struct {
	id      kernel.UUID
	name    string
	vehicle kernel.Vehicle

	isAvailable bool

	// location is the last accepted position report (nil before the
	// first ping)
	location       *kernel.GeoPoint
	lastLocationAt time.Time

	// activeOrderID is the order currently carried (nil when free)
	activeOrderID *kernel.UUID

	guard guard.ConstructorGuard
}

// NewAgent creates an available Agent with no active order and no known
// location.
func NewAgent(id kernel.UUID, name string, vehicle kernel.Vehicle) (*Agent, error) {
	a := &Agent{
		isAvailable: true,
		guard:       guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		a.setID(id),
		a.setName(name),
		a.setVehicle(vehicle),
	); err != nil {
		return nil, err
	}

	return a, nil
}

// RestoreAgent reconstructs an Agent from persistence.
// Location and lastLocationAt must be set together or not at all, and an
// agent holding an active order must not be marked available.
func RestoreAgent(
	id kernel.UUID,
	name string,
	vehicle kernel.Vehicle,
	isAvailable bool,
	location *kernel.GeoPoint,
	lastLocationAt time.Time,
	activeOrderID *kernel.UUID,
) (*Agent, error) {
	a := &Agent{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		a.setID(id),
		a.setName(name),
		a.setVehicle(vehicle),
	); err != nil {
		return nil, err
	}

	if location != nil {
		if err := location.Validate(); err != nil {
			return nil, err
		}
		if lastLocationAt.IsZero() {
			return nil, errs.NewValueIsRequiredError("lastLocationAt")
		}
	} else if !lastLocationAt.IsZero() {
		return nil, errs.NewValueIsInvalidError("lastLocationAt is set without a location")
	}

	if activeOrderID != nil {
		if err := activeOrderID.Validate(); err != nil {
			return nil, err
		}
		if isAvailable {
			return nil, errs.NewValueIsInvalidError("agent with an active order cannot be available")
		}
	}

	a.isAvailable = isAvailable
	a.location = location
	a.lastLocationAt = lastLocationAt
	a.activeOrderID = activeOrderID

	return a, nil
}

// Validate ensures the Agent instance was properly constructed.
func (a *Agent) Validate() error {
	if a == nil {
		return ErrAgentIsNotConstructed
	}
	return a.guard.Validate(ErrAgentIsNotConstructed)
}

// IsEqual compares two agents by their unique identifiers.
func (a *Agent) IsEqual(other *Agent) bool {
	return other != nil && a.id.IsEqual(other.id)
}

// ID returns the agent's unique identifier.
func (a *Agent) ID() kernel.UUID {
	return a.id
}

// Name returns the agent's display name.
func (a *Agent) Name() string {
	return a.name
}

// Vehicle returns the agent's vehicle kind.
func (a *Agent) Vehicle() kernel.Vehicle {
	return a.vehicle
}

// IsAvailable reports whether the agent can receive dispatch offers.
func (a *Agent) IsAvailable() bool {
	return a.isAvailable
}

// Location returns the last accepted position, or nil before the first ping.
func (a *Agent) Location() *kernel.GeoPoint {
	return a.location
}

// LastLocationAt returns the client timestamp of the last accepted ping.
// Zero before the first ping.
func (a *Agent) LastLocationAt() time.Time {
	return a.lastLocationAt
}

// ActiveOrderID returns the order the agent currently carries, or nil.
func (a *Agent) ActiveOrderID() *kernel.UUID {
	return a.activeOrderID
}

// SetAvailable toggles the agent's availability. An agent holding an active
// order cannot be made available.
func (a *Agent) SetAvailable(available bool) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if available && a.activeOrderID != nil {
		return ErrAgentBusy
	}
	a.isAvailable = available
	return nil
}

// TakeOrder records that the agent accepted the order. The agent must be
// available and free; taking an order makes the agent unavailable.
func (a *Agent) TakeOrder(orderID kernel.UUID) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := orderID.Validate(); err != nil {
		return err
	}

	if a.activeOrderID != nil {
		return fmt.Errorf("%w: %s", ErrAgentBusy, a.activeOrderID)
	}
	if !a.isAvailable {
		return ErrAgentNotAvailable
	}

	a.activeOrderID = &orderID
	a.isAvailable = false

	return nil
}

// ReleaseOrder records that the order left the agent's hands, either by
// delivery or cancellation, and flips the agent back to available. Releasing
// when the agent is already free is a no-op; releasing a different order is
// an error.
func (a *Agent) ReleaseOrder(orderID kernel.UUID) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := orderID.Validate(); err != nil {
		return err
	}

	if a.activeOrderID == nil {
		return nil
	}
	if !a.activeOrderID.IsEqual(orderID) {
		return fmt.Errorf("%w: holding %s", ErrOrderNotHeld, a.activeOrderID)
	}

	a.activeOrderID = nil
	a.isAvailable = true

	return nil
}

// UpdateLocation applies a position report ordered by its client timestamp.
// Reports at or before the last accepted timestamp are ignored and return
// (false, nil); accepted reports return (true, nil).
func (a *Agent) UpdateLocation(location kernel.GeoPoint, at time.Time) (bool, error) {
	if err := a.Validate(); err != nil {
		return false, err
	}
	if err := location.Validate(); err != nil {
		return false, err
	}
	if at.IsZero() {
		return false, errs.NewValueIsRequiredError("at")
	}

	if !at.After(a.lastLocationAt) {
		return false, nil
	}

	a.location = &location
	a.lastLocationAt = at.UTC()

	return true, nil
}

func (a *Agent) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	a.id = id
	return nil
}

func (a *Agent) setName(name string) error {
	if name == "" {
		return errs.NewValueIsRequiredError("name")
	}
	a.name = name
	return nil
}

func (a *Agent) setVehicle(vehicle kernel.Vehicle) error {
	if err := vehicle.Validate(); err != nil {
		return err
	}
	a.vehicle = vehicle
	return nil
}
