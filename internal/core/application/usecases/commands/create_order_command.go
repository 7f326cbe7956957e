package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// CreateOrderCommand represents a request to place a new order. The order
// enters the system in pending status; the dispatch core takes over from
// there.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(customerID, businessID, restaurant, delivery, nil)
//	if err != nil {
//	    return err
//	}
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return err
//	}
//	fmt.Printf("order %s placed", cmd.OrderID())
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID            kernel.UUID
	customerID         kernel.UUID
	businessID         kernel.UUID
	restaurantLocation kernel.GeoPoint
	deliveryLocation   kernel.GeoPoint
	preferredVehicle   *kernel.Vehicle

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand creates a validated order placement request.
// Automatically generates a unique ID for the order.
func NewCreateOrderCommand(
	customerID kernel.UUID,
	businessID kernel.UUID,
	restaurantLocation kernel.GeoPoint,
	deliveryLocation kernel.GeoPoint,
	preferredVehicle *kernel.Vehicle,
) (CreateOrderCommand, error) {
	command := CreateOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		command.setOrderID(kernel.NewUUID()),
		command.setCustomerID(customerID),
		command.setBusinessID(businessID),
		command.setRestaurantLocation(restaurantLocation),
		command.setDeliveryLocation(deliveryLocation),
		command.setPreferredVehicle(preferredVehicle),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return command, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

// OrderID returns the generated order ID.
func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// CustomerID returns the placing customer's ID.
func (c CreateOrderCommand) CustomerID() kernel.UUID {
	return c.customerID
}

// BusinessID returns the fulfilling business's ID.
func (c CreateOrderCommand) BusinessID() kernel.UUID {
	return c.businessID
}

// RestaurantLocation returns the pickup coordinates.
func (c CreateOrderCommand) RestaurantLocation() kernel.GeoPoint {
	return c.restaurantLocation
}

// DeliveryLocation returns the drop-off coordinates.
func (c CreateOrderCommand) DeliveryLocation() kernel.GeoPoint {
	return c.deliveryLocation
}

// PreferredVehicle returns the optional vehicle restriction.
func (c CreateOrderCommand) PreferredVehicle() *kernel.Vehicle {
	return c.preferredVehicle
}

func (c *CreateOrderCommand) setOrderID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.orderID = id
	return nil
}

func (c *CreateOrderCommand) setCustomerID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.customerID = id
	return nil
}

func (c *CreateOrderCommand) setBusinessID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.businessID = id
	return nil
}

func (c *CreateOrderCommand) setRestaurantLocation(p kernel.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c.restaurantLocation = p
	return nil
}

func (c *CreateOrderCommand) setDeliveryLocation(p kernel.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c.deliveryLocation = p
	return nil
}

func (c *CreateOrderCommand) setPreferredVehicle(v *kernel.Vehicle) error {
	if v == nil {
		return nil
	}
	if err := v.Validate(); err != nil {
		return err
	}
	c.preferredVehicle = v
	return nil
}
