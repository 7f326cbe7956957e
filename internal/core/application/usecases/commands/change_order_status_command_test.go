package commands_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func mustGeoPoint(t *testing.T, lat, lng float64) kernel.GeoPoint {
	t.Helper()
	p, err := kernel.NewGeoPoint(lat, lng)
	require.NoError(t, err)
	return p
}

func mustActor(t *testing.T, id kernel.UUID, role order.Role) order.Actor {
	t.Helper()
	a, err := order.NewActor(id, role)
	require.NoError(t, err)
	return a
}

func TestNewChangeOrderStatusCommand(t *testing.T) {
	actor := mustActor(t, kernel.NewUUID(), order.RoleBusiness)

	t.Run("valid command", func(t *testing.T) {
		orderID := kernel.NewUUID()

		cmd, err := commands.NewChangeOrderStatusCommand(orderID, order.Confirmed, actor)

		require.NoError(t, err)
		assert.NoError(t, cmd.Validate())
		assert.True(t, orderID.IsEqual(cmd.OrderID()))
		assert.Equal(t, order.Confirmed, cmd.Requested())
		assert.Equal(t, actor, cmd.Actor())
	})

	t.Run("rejects zero order id", func(t *testing.T) {
		_, err := commands.NewChangeOrderStatusCommand(kernel.UUID{}, order.Confirmed, actor)
		assert.Error(t, err)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		_, err := commands.NewChangeOrderStatusCommand(kernel.NewUUID(), order.Unknown, actor)
		assert.Error(t, err)
	})

	t.Run("rejects zero value actor", func(t *testing.T) {
		_, err := commands.NewChangeOrderStatusCommand(kernel.NewUUID(), order.Confirmed, order.Actor{})
		assert.Error(t, err)
	})

	t.Run("zero value command fails validation", func(t *testing.T) {
		var cmd commands.ChangeOrderStatusCommand
		assert.ErrorIs(t, cmd.Validate(), commands.ErrChangeOrderStatusCommandIsNotConstructed)
	})
}
