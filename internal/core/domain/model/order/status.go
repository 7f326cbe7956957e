package order

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Status represents the lifecycle state of an order.
// It implements a state machine with defined transitions to ensure
// orders follow the correct dispatch workflow.
//
// State transitions:
//
//	Pending ──> Confirmed ──> Preparing ──> Ready ──> Assigned ──> PickedUp ──> OnTheWay ──> Delivered
//	   │            │             │           │           │            │            │
//	   └────────────┴─────────────┴───────────┴───────────┴────────────┴────────────┴──> Cancelled
//
// Delivered and Cancelled are terminal: no further transitions are allowed.
// The Ready -> Assigned step is performed only by the dispatch matcher, never
// by an actor-requested transition.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Pending is the initial status when an order is first placed.
	Pending

	// Confirmed indicates the business has accepted the order.
	Confirmed

	// Preparing indicates the business is preparing the order.
	Preparing

	// Ready indicates the order is ready for pickup and eligible for
	// dispatch offers.
	Ready

	// Assigned indicates exactly one agent has accepted the order.
	Assigned

	// PickedUp indicates the assigned agent has collected the order.
	PickedUp

	// OnTheWay indicates the agent is en route to the delivery location.
	OnTheWay

	// Delivered indicates the order reached the customer. Terminal.
	Delivered

	// Cancelled indicates the order was cancelled before pickup. Terminal.
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:   "unknown",
		Pending:   "pending",
		Confirmed: "confirmed",
		Preparing: "preparing",
		Ready:     "ready",
		Assigned:  "assigned",
		PickedUp:  "picked_up",
		OnTheWay:  "on_the_way",
		Delivered: "delivered",
		Cancelled: "cancelled",
	}
}

func getValidStatusStrings() map[string]Status {
	return map[string]Status{
		"pending":    Pending,
		"confirmed":  Confirmed,
		"preparing":  Preparing,
		"ready":      Ready,
		"assigned":   Assigned,
		"picked_up":  PickedUp,
		"on_the_way": OnTheWay,
		"delivered":  Delivered,
		"cancelled":  Cancelled,
	}
}

// getSuccessors returns the direct successor of each status in the forward
// chain. Cancelled is handled separately in CanTransitionTo because it is
// reachable from every non-terminal state.
func getSuccessors() map[Status]Status {
	//nolint:exhaustive // terminal statuses have no successor
	return map[Status]Status{
		Pending:   Confirmed,
		Confirmed: Preparing,
		Preparing: Ready,
		Ready:     Assigned,
		Assigned:  PickedUp,
		PickedUp:  OnTheWay,
		OnTheWay:  Delivered,
	}
}

// ParseStatus converts a wire-format string into a Status.
// Returns a ValueIsInvalidError for anything that is not a known status.
func ParseStatus(s string) (Status, error) {
	status, ok := getValidStatusStrings()[s]
	if !ok {
		return Unknown, errs.NewValueIsInvalidError(fmt.Sprintf("status: %s", s))
	}
	return status, nil
}

// String returns the wire-format name of the status, e.g. "picked_up".
// It implements the fmt.Stringer interface and is safe to call on any
// Status value, including invalid ones.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// Validate checks if the Status value is one of the defined lifecycle states.
// Unknown (0) and out-of-range values are invalid.
func (s Status) Validate() error {
	if _, ok := getValidStatusStrings()[s.String()]; !ok {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%d is not a valid status", s),
		)
	}
	return nil
}

// IsTerminal reports whether the status permits no further transitions.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// RequiresAgent reports whether an order in this status must have an
// assigned agent. Delivered retains the agent for history; Cancelled
// does not.
func (s Status) RequiresAgent() bool {
	switch s {
	case Assigned, PickedUp, OnTheWay, Delivered:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the state machine allows moving from s
// to next. Allowed moves are the direct successor in the forward chain,
// plus Cancelled from any non-terminal state. Idempotent re-requests of
// the current status are not transitions and return false here.
func (s Status) CanTransitionTo(next Status) bool {
	if s.IsTerminal() {
		return false
	}
	if next == Cancelled {
		return true
	}
	return getSuccessors()[s] == next
}
