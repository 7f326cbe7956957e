package order

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not
	// created through NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder constructor")

	// ErrInvalidTransition is returned when a requested status is not a
	// legal move from the order's current status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrForbidden is returned when the transition is structurally legal
	// but the requesting actor is not authorized to perform it.
	ErrForbidden = errors.New("actor is not authorized for this transition")
)

// StatusChange is a single entry in an order's status history.
type StatusChange struct {
	status Status
	at     time.Time
}

// NewStatusChange creates a history entry with a validated status.
func NewStatusChange(status Status, at time.Time) (StatusChange, error) {
	if err := status.Validate(); err != nil {
		return StatusChange{}, err
	}
	if at.IsZero() {
		return StatusChange{}, errs.NewValueIsRequiredError("at")
	}
	return StatusChange{status: status, at: at}, nil
}

// Status returns the status the order entered.
func (c StatusChange) Status() Status {
	return c.status
}

// At returns when the order entered the status.
func (c StatusChange) At() time.Time {
	return c.at
}

// Order is the aggregate root for a dispatched delivery order.
//
// Order maintains these invariants:
//   - AgentID is non-nil if and only if the status requires an agent
//     (assigned, picked_up, on_the_way, delivered)
//   - Every accepted write appends exactly one history entry, so the
//     history length always equals the version
//   - History timestamps are strictly increasing
//   - Terminal statuses (delivered, cancelled) reject all further writes
//
// The struct uses private fields to ensure encapsulation; instances must be
// created through NewOrder or reconstructed from persistence through
// RestoreOrder.
type Order struct {
	id         kernel.UUID
	customerID kernel.UUID
	businessID kernel.UUID

	restaurantLocation kernel.GeoPoint
	deliveryLocation   kernel.GeoPoint

	// preferredVehicle restricts dispatch offers to agents riding this
	// vehicle kind. Nil means any vehicle.
	preferredVehicle *kernel.Vehicle

	// agentID is the assigned agent's ID (nil until assignment)
	agentID *kernel.UUID

	status  Status
	history []StatusChange

	// version is incremented on every accepted write and backs the
	// optimistic concurrency check in the repository
	version int

	guard guard.ConstructorGuard
}

// NewOrder creates a new Order in Pending status with version 1 and a single
// history entry stamped at now.
//
// Parameters:
//   - id: unique identifier for the order
//   - customerID: the customer who placed the order
//   - businessID: the business preparing the order
//   - restaurantLocation: pickup coordinates
//   - deliveryLocation: drop-off coordinates
//   - preferredVehicle: optional vehicle restriction for dispatch (nil for any)
//   - now: creation timestamp
//
// Returns a validation error if any identifier or location is invalid.
func NewOrder(
	id kernel.UUID,
	customerID kernel.UUID,
	businessID kernel.UUID,
	restaurantLocation kernel.GeoPoint,
	deliveryLocation kernel.GeoPoint,
	preferredVehicle *kernel.Vehicle,
	now time.Time,
) (*Order, error) {
	o := &Order{
		status: Pending,
		guard:  guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setCustomerID(customerID),
		o.setBusinessID(businessID),
		o.setRestaurantLocation(restaurantLocation),
		o.setDeliveryLocation(deliveryLocation),
		o.setPreferredVehicle(preferredVehicle),
	); err != nil {
		return nil, err
	}

	if now.IsZero() {
		return nil, errs.NewValueIsRequiredError("now")
	}

	o.history = []StatusChange{{status: Pending, at: now.UTC()}}
	o.version = 1

	return o, nil
}

// RestoreOrder reconstructs an Order from persistence without applying
// lifecycle rules. It validates the structural invariants that persistence
// must uphold: agent presence consistent with status, version at least 1,
// and a history whose length equals the version.
func RestoreOrder(
	id kernel.UUID,
	customerID kernel.UUID,
	businessID kernel.UUID,
	restaurantLocation kernel.GeoPoint,
	deliveryLocation kernel.GeoPoint,
	preferredVehicle *kernel.Vehicle,
	agentID *kernel.UUID,
	status Status,
	history []StatusChange,
	version int,
) (*Order, error) {
	o := &Order{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setCustomerID(customerID),
		o.setBusinessID(businessID),
		o.setRestaurantLocation(restaurantLocation),
		o.setDeliveryLocation(deliveryLocation),
		o.setPreferredVehicle(preferredVehicle),
		status.Validate(),
	); err != nil {
		return nil, err
	}

	if agentID != nil {
		if err := agentID.Validate(); err != nil {
			return nil, err
		}
	}
	if status.RequiresAgent() != (agentID != nil) {
		return nil, errs.NewValueIsInvalidErrorWithCause(
			"agentID is inconsistent with status",
			fmt.Errorf("status %s, agent present: %t", status, agentID != nil),
		)
	}

	if version < 1 {
		return nil, errs.NewVersionIsInvalidError("version", fmt.Errorf("%d is less than 1", version))
	}
	if len(history) != version {
		return nil, errs.NewVersionIsInvalidError(
			"history",
			fmt.Errorf("history length %d does not match version %d", len(history), version),
		)
	}

	o.agentID = agentID
	o.status = status
	o.history = append([]StatusChange(nil), history...)
	o.version = version

	return o, nil
}

// Validate ensures the Order instance was properly constructed.
func (o *Order) Validate() error {
	if o == nil {
		return ErrOrderIsNotConstructed
	}
	return o.guard.Validate(ErrOrderIsNotConstructed)
}

// IsEqual compares two orders by their unique identifiers.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// CustomerID returns the owning customer's ID.
func (o *Order) CustomerID() kernel.UUID {
	return o.customerID
}

// BusinessID returns the owning business's ID.
func (o *Order) BusinessID() kernel.UUID {
	return o.businessID
}

// RestaurantLocation returns the pickup coordinates.
func (o *Order) RestaurantLocation() kernel.GeoPoint {
	return o.restaurantLocation
}

// DeliveryLocation returns the drop-off coordinates.
func (o *Order) DeliveryLocation() kernel.GeoPoint {
	return o.deliveryLocation
}

// PreferredVehicle returns the vehicle restriction for dispatch offers.
// Returns nil if any vehicle may deliver the order.
func (o *Order) PreferredVehicle() *kernel.Vehicle {
	return o.preferredVehicle
}

// AgentID returns the assigned agent's ID, or nil if unassigned.
func (o *Order) AgentID() *kernel.UUID {
	return o.agentID
}

// Status returns the current lifecycle status.
func (o *Order) Status() Status {
	return o.status
}

// History returns a copy of the status history, oldest first.
func (o *Order) History() []StatusChange {
	return append([]StatusChange(nil), o.history...)
}

// Version returns the aggregate version. It equals the number of accepted
// writes, starting at 1 for a freshly created order.
func (o *Order) Version() int {
	return o.version
}

// ChangeStatus applies an actor-requested status transition.
//
// Requesting the status the order is already in is a no-op and returns
// (false, nil) without touching history or version. Requesting Assigned
// always fails: assignment happens only through Assign.
//
// The transition must be structurally legal (ErrInvalidTransition otherwise)
// and the actor must be authorized for it (ErrForbidden otherwise):
//   - the owning business moves Pending -> Confirmed -> Preparing -> Ready
//   - the assigned agent moves Assigned -> PickedUp -> OnTheWay -> Delivered
//   - the owning customer or business may request Cancelled, but only
//     before the order is picked up
//
// Reaching Cancelled clears the assigned agent; Delivered retains it.
// Returns (true, nil) when the order changed.
func (o *Order) ChangeStatus(requested Status, actor Actor, now time.Time) (bool, error) {
	if err := o.Validate(); err != nil {
		return false, err
	}
	if err := requested.Validate(); err != nil {
		return false, err
	}
	if now.IsZero() {
		return false, errs.NewValueIsRequiredError("now")
	}

	if requested == o.status {
		return false, nil
	}

	if requested == Assigned {
		return false, fmt.Errorf("%w: %s -> %s is performed by dispatch, not requested",
			ErrInvalidTransition, o.status, requested)
	}
	if !o.status.CanTransitionTo(requested) {
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.status, requested)
	}

	if err := o.authorizeChange(requested, actor); err != nil {
		return false, err
	}

	o.status = requested
	if requested == Cancelled {
		o.agentID = nil
	}
	o.appendHistory(requested, now)

	return true, nil
}

// Assign assigns the order to an agent and moves it from Ready to Assigned.
// This is the dispatch matcher's entry point; at-most-one assignment is
// enforced by the repository's conditional write, not here.
func (o *Order) Assign(agentID kernel.UUID, now time.Time) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if err := agentID.Validate(); err != nil {
		return err
	}
	if now.IsZero() {
		return errs.NewValueIsRequiredError("now")
	}

	if o.status != Ready {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.status, Assigned)
	}

	o.status = Assigned
	o.agentID = &agentID
	o.appendHistory(Assigned, now)

	return nil
}

// authorizeChange checks the actor against the transition's authorization
// rule. The transition is already known to be structurally legal.
func (o *Order) authorizeChange(requested Status, actor Actor) error {
	if err := actor.ID().Validate(); err != nil {
		return err
	}

	switch requested {
	case Confirmed, Preparing, Ready:
		if actor.Role() == RoleBusiness && actor.ID().IsEqual(o.businessID) {
			return nil
		}

	case PickedUp, OnTheWay, Delivered:
		if actor.Role() == RoleAgent && o.agentID != nil && actor.ID().IsEqual(*o.agentID) {
			return nil
		}

	case Cancelled:
		// Cancellation window closes at pickup.
		pickedUp := o.status == PickedUp || o.status == OnTheWay
		ownsAsCustomer := actor.Role() == RoleCustomer && actor.ID().IsEqual(o.customerID)
		ownsAsBusiness := actor.Role() == RoleBusiness && actor.ID().IsEqual(o.businessID)
		if !pickedUp && (ownsAsCustomer || ownsAsBusiness) {
			return nil
		}
	}

	return fmt.Errorf("%w: %s %s may not move %s -> %s",
		ErrForbidden, actor.Role(), actor.ID(), o.status, requested)
}

// appendHistory records the write and bumps the version. Timestamps are
// nudged forward when the clock has not advanced past the previous entry,
// keeping the history strictly ordered.
func (o *Order) appendHistory(status Status, at time.Time) {
	at = at.UTC()
	if last := o.history[len(o.history)-1].at; !at.After(last) {
		at = last.Add(time.Millisecond)
	}
	o.history = append(o.history, StatusChange{status: status, at: at})
	o.version++
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setCustomerID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.customerID = id
	return nil
}

func (o *Order) setBusinessID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.businessID = id
	return nil
}

func (o *Order) setRestaurantLocation(p kernel.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return err
	}
	o.restaurantLocation = p
	return nil
}

func (o *Order) setDeliveryLocation(p kernel.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return err
	}
	o.deliveryLocation = p
	return nil
}

func (o *Order) setPreferredVehicle(v *kernel.Vehicle) error {
	if v == nil {
		return nil
	}
	if err := v.Validate(); err != nil {
		return err
	}
	o.preferredVehicle = v
	return nil
}
