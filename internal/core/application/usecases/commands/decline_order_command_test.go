package commands_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
)

func TestNewDeclineOrderCommand(t *testing.T) {
	t.Run("valid command", func(t *testing.T) {
		orderID := kernel.NewUUID()
		agentID := kernel.NewUUID()

		cmd, err := commands.NewDeclineOrderCommand(orderID, agentID)

		require.NoError(t, err)
		assert.NoError(t, cmd.Validate())
		assert.True(t, orderID.IsEqual(cmd.OrderID()))
		assert.True(t, agentID.IsEqual(cmd.AgentID()))
	})

	t.Run("rejects zero ids", func(t *testing.T) {
		_, err := commands.NewDeclineOrderCommand(kernel.UUID{}, kernel.NewUUID())
		assert.Error(t, err)

		_, err = commands.NewDeclineOrderCommand(kernel.NewUUID(), kernel.UUID{})
		assert.Error(t, err)
	})

	t.Run("zero value command fails validation", func(t *testing.T) {
		var cmd commands.DeclineOrderCommand
		assert.ErrorIs(t, cmd.Validate(), commands.ErrDeclineOrderCommandIsNotConstructed)
	})
}
