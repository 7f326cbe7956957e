package services

import (
	"errors"

	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
)

// ErrNoEligibleAgents is returned when no agent in the candidate pool may
// receive an offer for the order.
var ErrNoEligibleAgents = errors.New("no eligible agents")

// Eligibility is a domain service that filters the agent pool down to the
// agents allowed to receive a dispatch offer for a ready order.
//
// Selection rules:
//   - the agent must be available and carry no active order
//   - if the order prefers a vehicle kind, the agent must ride it
//   - if the agent has reported a location, it must be within the work
//     radius of the restaurant; agents that have not reported yet are
//     included, since excluding them would starve fresh agents of work
type Eligibility struct {
	workRadiusKm float64
}

// NewEligibility creates an Eligibility service with the given work radius
// in kilometers. The radius must be positive.
func NewEligibility(workRadiusKm float64) (Eligibility, error) {
	if workRadiusKm <= 0 {
		return Eligibility{}, errs.NewValueIsInvalidError("workRadiusKm must be positive")
	}
	return Eligibility{workRadiusKm: workRadiusKm}, nil
}

// EligibleAgents returns the subset of agents that may receive an offer for
// the order, preserving the input ordering. The order must be in Ready
// status. Returns ErrNoEligibleAgents when the subset is empty.
func (e Eligibility) EligibleAgents(o *order.Order, agents []*agent.Agent) ([]*agent.Agent, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if o.Status() != order.Ready {
		return nil, errs.NewValueIsInvalidError("order is not ready for dispatch")
	}

	var eligible []*agent.Agent
	for _, a := range agents {
		if err := a.Validate(); err != nil {
			return nil, err
		}

		ok, err := e.isEligible(o, a)
		if err != nil {
			return nil, err
		}
		if ok {
			eligible = append(eligible, a)
		}
	}

	if len(eligible) == 0 {
		return nil, ErrNoEligibleAgents
	}

	return eligible, nil
}

func (e Eligibility) isEligible(o *order.Order, a *agent.Agent) (bool, error) {
	if !a.IsAvailable() || a.ActiveOrderID() != nil {
		return false, nil
	}

	if pref := o.PreferredVehicle(); pref != nil && a.Vehicle() != *pref {
		return false, nil
	}

	if loc := a.Location(); loc != nil {
		distance, err := loc.DistanceKm(o.RestaurantLocation())
		if err != nil {
			return false, err
		}
		if distance > e.workRadiusKm {
			return false, nil
		}
	}

	return true, nil
}
