package realtime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/realtime"
)

func isClosed(done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	default:
		return false
	}
}

func TestRegistry_Join_IsIdempotent(t *testing.T) {
	registry := realtime.NewRegistry()
	orderID := kernel.NewUUID()
	actorID := kernel.NewUUID()

	first, created := registry.Join(orderID, "conn-1", actorID, order.RoleCustomer)
	require.NotNil(t, first)
	assert.True(t, created)

	second, created := registry.Join(orderID, "conn-1", actorID, order.RoleCustomer)
	assert.False(t, created)
	assert.Same(t, first, second)
	assert.Len(t, registry.Subscribers(orderID), 1)
}

func TestRegistry_Join_OneConnectionManyOrders(t *testing.T) {
	registry := realtime.NewRegistry()
	actorID := kernel.NewUUID()
	firstOrder := kernel.NewUUID()
	secondOrder := kernel.NewUUID()

	registry.Join(firstOrder, "conn-1", actorID, order.RoleCustomer)
	registry.Join(secondOrder, "conn-1", actorID, order.RoleCustomer)

	assert.Len(t, registry.Subscribers(firstOrder), 1)
	assert.Len(t, registry.Subscribers(secondOrder), 1)
}

func TestRegistry_Leave(t *testing.T) {
	registry := realtime.NewRegistry()
	orderID := kernel.NewUUID()

	sub, _ := registry.Join(orderID, "conn-1", kernel.NewUUID(), order.RoleCustomer)

	registry.Leave(orderID, "conn-1")

	assert.Empty(t, registry.Subscribers(orderID))
	assert.True(t, isClosed(sub.Done()))

	// Leaving again, or leaving something never joined, is a no-op.
	registry.Leave(orderID, "conn-1")
	registry.Leave(kernel.NewUUID(), "conn-9")
}

func TestRegistry_DropConnection_RemovesAllSubscriptions(t *testing.T) {
	registry := realtime.NewRegistry()
	actorID := kernel.NewUUID()
	firstOrder := kernel.NewUUID()
	secondOrder := kernel.NewUUID()

	first, _ := registry.Join(firstOrder, "conn-1", actorID, order.RoleAgent)
	second, _ := registry.Join(secondOrder, "conn-1", actorID, order.RoleAgent)
	other, _ := registry.Join(firstOrder, "conn-2", kernel.NewUUID(), order.RoleCustomer)

	registry.DropConnection("conn-1")

	assert.True(t, isClosed(first.Done()))
	assert.True(t, isClosed(second.Done()))
	assert.False(t, isClosed(other.Done()))
	assert.Len(t, registry.Subscribers(firstOrder), 1)
	assert.Empty(t, registry.Subscribers(secondOrder))
}

func TestRegistry_CloseOrder_RemovesAllSubscribers(t *testing.T) {
	registry := realtime.NewRegistry()
	orderID := kernel.NewUUID()

	first, _ := registry.Join(orderID, "conn-1", kernel.NewUUID(), order.RoleCustomer)
	second, _ := registry.Join(orderID, "conn-2", kernel.NewUUID(), order.RoleBusiness)

	registry.CloseOrder(orderID)

	assert.Empty(t, registry.Subscribers(orderID))
	assert.True(t, isClosed(first.Done()))
	assert.True(t, isClosed(second.Done()))
}
