package commands_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/core/domain/model/kernel"
)

type agentOnlyUoWFactory struct{ store *fakeStore }

func (f agentOnlyUoWFactory) Create() commands.AgentUoW { return fakeUoW{store: f.store} }

func TestReportLocationCommandHandler_Handle(t *testing.T) {
	loc := mustGeoPoint(t, 40.7128, -74.0060)

	t.Run("accepted ping persists and broadcasts to active order", func(t *testing.T) {
		ctx := t.Context()
		store := newFakeStore()
		broadcaster := &MockLocationBroadcaster{}

		orderID := kernel.NewUUID()
		a, err := agent.NewAgent(kernel.NewUUID(), "Alice", kernel.VehicleBicycle)
		require.NoError(t, err)
		require.NoError(t, a.TakeOrder(orderID))
		store.putAgent(a)

		broadcaster.On("Broadcast", orderID, a.ID(), loc, testNow).Return()

		handler := commands.NewReportLocationCommandHandler(agentOnlyUoWFactory{store: store}, broadcaster)
		cmd, err := commands.NewReportLocationCommand(a.ID(), &orderID, loc, testNow)
		require.NoError(t, err)

		accepted, err := handler.Handle(ctx, cmd)

		require.NoError(t, err)
		assert.True(t, accepted)
		broadcaster.AssertExpectations(t)

		stored, err := fakeAgentRepo{store: store}.Get(ctx, a.ID())
		require.NoError(t, err)
		require.NotNil(t, stored.Location())
		assert.Equal(t, loc.Lat(), stored.Location().Lat())
	})

	t.Run("idle agent ping persists without broadcast", func(t *testing.T) {
		ctx := t.Context()
		store := newFakeStore()
		broadcaster := &MockLocationBroadcaster{}

		a, err := agent.NewAgent(kernel.NewUUID(), "Bob", kernel.VehicleCar)
		require.NoError(t, err)
		store.putAgent(a)

		handler := commands.NewReportLocationCommandHandler(agentOnlyUoWFactory{store: store}, broadcaster)
		cmd, err := commands.NewReportLocationCommand(a.ID(), nil, loc, testNow)
		require.NoError(t, err)

		accepted, err := handler.Handle(ctx, cmd)

		require.NoError(t, err)
		assert.True(t, accepted)
		broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ping naming another order is rejected", func(t *testing.T) {
		ctx := t.Context()
		store := newFakeStore()
		broadcaster := &MockLocationBroadcaster{}

		a, err := agent.NewAgent(kernel.NewUUID(), "Dan", kernel.VehicleBicycle)
		require.NoError(t, err)
		require.NoError(t, a.TakeOrder(kernel.NewUUID()))
		store.putAgent(a)

		claimed := kernel.NewUUID()
		handler := commands.NewReportLocationCommandHandler(agentOnlyUoWFactory{store: store}, broadcaster)
		cmd, err := commands.NewReportLocationCommand(a.ID(), &claimed, loc, testNow)
		require.NoError(t, err)

		accepted, err := handler.Handle(ctx, cmd)

		assert.ErrorIs(t, err, commands.ErrPingOrderMismatch)
		assert.False(t, accepted)
		broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

		stored, err := fakeAgentRepo{store: store}.Get(ctx, a.ID())
		require.NoError(t, err)
		assert.Nil(t, stored.Location())
	})

	t.Run("ping naming an order while idle is rejected", func(t *testing.T) {
		ctx := t.Context()
		store := newFakeStore()
		broadcaster := &MockLocationBroadcaster{}

		a, err := agent.NewAgent(kernel.NewUUID(), "Eve", kernel.VehicleCar)
		require.NoError(t, err)
		store.putAgent(a)

		claimed := kernel.NewUUID()
		handler := commands.NewReportLocationCommandHandler(agentOnlyUoWFactory{store: store}, broadcaster)
		cmd, err := commands.NewReportLocationCommand(a.ID(), &claimed, loc, testNow)
		require.NoError(t, err)

		accepted, err := handler.Handle(ctx, cmd)

		assert.ErrorIs(t, err, commands.ErrPingOrderMismatch)
		assert.False(t, accepted)
	})

	t.Run("stale ping is dropped silently", func(t *testing.T) {
		ctx := t.Context()
		store := newFakeStore()
		broadcaster := &MockLocationBroadcaster{}

		a, err := agent.NewAgent(kernel.NewUUID(), "Cara", kernel.VehicleMotorbike)
		require.NoError(t, err)
		_, err = a.UpdateLocation(loc, testNow)
		require.NoError(t, err)
		store.putAgent(a)

		handler := commands.NewReportLocationCommandHandler(agentOnlyUoWFactory{store: store}, broadcaster)
		cmd, err := commands.NewReportLocationCommand(a.ID(), nil, mustGeoPoint(t, 41, -75), testNow.Add(-time.Second))
		require.NoError(t, err)

		accepted, err := handler.Handle(ctx, cmd)

		require.NoError(t, err)
		assert.False(t, accepted)
		broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

		stored, err := fakeAgentRepo{store: store}.Get(ctx, a.ID())
		require.NoError(t, err)
		assert.Equal(t, loc.Lat(), stored.Location().Lat())
	})
}
