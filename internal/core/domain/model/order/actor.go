package order

import (
	"fmt"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// Role identifies the kind of party acting on an order.
type Role int

const (
	RoleUnknown Role = iota

	// RoleCustomer is the party that placed the order.
	RoleCustomer

	// RoleBusiness is the restaurant preparing the order.
	RoleBusiness

	// RoleAgent is a delivery agent.
	RoleAgent
)

func getRoleStrings() map[Role]string {
	return map[Role]string{
		RoleUnknown:  "unknown",
		RoleCustomer: "customer",
		RoleBusiness: "business",
		RoleAgent:    "agent",
	}
}

func getValidRoleStrings() map[string]Role {
	return map[string]Role{
		"customer": RoleCustomer,
		"business": RoleBusiness,
		"agent":    RoleAgent,
	}
}

// ParseRole converts a string into a Role. The input must be one of
// "customer", "business" or "agent".
func ParseRole(s string) (Role, error) {
	r, ok := getValidRoleStrings()[s]
	if !ok {
		return RoleUnknown, errs.NewValueIsInvalidError(fmt.Sprintf("role: %s", s))
	}
	return r, nil
}

// String returns the lowercase name of the role.
// It implements the fmt.Stringer interface.
func (r Role) String() string {
	s, ok := getRoleStrings()[r]
	if !ok {
		return "unknown"
	}
	return s
}

// Validate checks that the role is one of the known roles.
func (r Role) Validate() error {
	if _, ok := getValidRoleStrings()[r.String()]; !ok {
		return errs.NewValueIsInvalidError(fmt.Sprintf("role: %d", int(r)))
	}
	return nil
}

// Actor identifies the authenticated party requesting an order transition.
// It is a value object; construct it through NewActor.
type Actor struct {
	id   kernel.UUID
	role Role
}

// NewActor creates an Actor with a validated identity and role.
func NewActor(id kernel.UUID, role Role) (Actor, error) {
	if err := id.Validate(); err != nil {
		return Actor{}, err
	}
	if err := role.Validate(); err != nil {
		return Actor{}, err
	}
	return Actor{id: id, role: role}, nil
}

// ID returns the actor's identity.
func (a Actor) ID() kernel.UUID {
	return a.id
}

// Role returns the actor's role.
func (a Actor) Role() Role {
	return a.role
}
