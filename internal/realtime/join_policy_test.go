package realtime_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/realtime"
)

type orderLoaderStub struct {
	orders map[string]*order.Order
}

func (s *orderLoaderStub) Load(_ context.Context, orderID kernel.UUID) (*order.Order, error) {
	o, ok := s.orders[orderID.String()]
	if !ok {
		return nil, errs.NewObjectNotFoundError("orderId", orderID.String())
	}

	return o, nil
}

type offerCheckerStub struct {
	offered map[string]bool
}

func (s *offerCheckerStub) HasOffered(orderID kernel.UUID, agentID kernel.UUID) bool {
	return s.offered[orderID.String()+agentID.String()]
}

func newJoinPolicyFixture(t *testing.T, f orderFixture) (*realtime.JoinPolicy, *offerCheckerStub) {
	t.Helper()

	loader := &orderLoaderStub{orders: map[string]*order.Order{
		f.order.ID().String(): f.order,
	}}
	offers := &offerCheckerStub{offered: make(map[string]bool)}

	return realtime.NewJoinPolicy(loader, offers), offers
}

func TestJoinPolicy_Authorize(t *testing.T) {
	t.Run("owning customer may watch", func(t *testing.T) {
		f := newPendingOrder(t)
		policy, _ := newJoinPolicyFixture(t, f)

		actor := mustActor(t, f.customerID, order.RoleCustomer)
		assert.NoError(t, policy.Authorize(t.Context(), f.order.ID(), actor))
	})

	t.Run("other customer is rejected", func(t *testing.T) {
		f := newPendingOrder(t)
		policy, _ := newJoinPolicyFixture(t, f)

		actor := mustActor(t, kernel.NewUUID(), order.RoleCustomer)
		err := policy.Authorize(t.Context(), f.order.ID(), actor)
		assert.ErrorIs(t, err, order.ErrForbidden)
	})

	t.Run("owning business may watch", func(t *testing.T) {
		f := newPendingOrder(t)
		policy, _ := newJoinPolicyFixture(t, f)

		actor := mustActor(t, f.businessID, order.RoleBusiness)
		assert.NoError(t, policy.Authorize(t.Context(), f.order.ID(), actor))
	})

	t.Run("assigned agent may watch", func(t *testing.T) {
		f := newAssignedOrder(t)
		policy, _ := newJoinPolicyFixture(t, f)

		actor := mustActor(t, f.agentID, order.RoleAgent)
		assert.NoError(t, policy.Authorize(t.Context(), f.order.ID(), actor))
	})

	t.Run("other agent is rejected once assigned, offer or not", func(t *testing.T) {
		f := newAssignedOrder(t)
		policy, offers := newJoinPolicyFixture(t, f)

		stranger := kernel.NewUUID()
		offers.offered[f.order.ID().String()+stranger.String()] = true

		actor := mustActor(t, stranger, order.RoleAgent)
		err := policy.Authorize(t.Context(), f.order.ID(), actor)
		assert.ErrorIs(t, err, order.ErrForbidden)
	})

	t.Run("offered agent may watch an unassigned order", func(t *testing.T) {
		f := newPendingOrder(t)
		policy, offers := newJoinPolicyFixture(t, f)

		agentID := kernel.NewUUID()
		offers.offered[f.order.ID().String()+agentID.String()] = true

		actor := mustActor(t, agentID, order.RoleAgent)
		assert.NoError(t, policy.Authorize(t.Context(), f.order.ID(), actor))
	})

	t.Run("agent without an offer is rejected on an unassigned order", func(t *testing.T) {
		f := newPendingOrder(t)
		policy, _ := newJoinPolicyFixture(t, f)

		actor := mustActor(t, kernel.NewUUID(), order.RoleAgent)
		err := policy.Authorize(t.Context(), f.order.ID(), actor)
		assert.ErrorIs(t, err, order.ErrForbidden)
	})

	t.Run("unknown order propagates the loader error", func(t *testing.T) {
		f := newPendingOrder(t)
		policy, _ := newJoinPolicyFixture(t, f)

		actor := mustActor(t, f.customerID, order.RoleCustomer)
		missing := kernel.NewUUID()

		err := policy.Authorize(t.Context(), missing, actor)
		require.Error(t, err)
		assert.NotErrorIs(t, err, order.ErrForbidden)
	})
}
