package realtime_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/realtime"
)

func drainLocations(sub *realtime.Subscription) []realtime.LocationEvent {
	var events []realtime.LocationEvent
	for {
		select {
		case e := <-sub.LocationEvents():
			events = append(events, e)
		default:
			return events
		}
	}
}

func TestHub_Broadcast_DropsOutOfOrderPings(t *testing.T) {
	registry := realtime.NewRegistry()
	hub := realtime.NewHub(registry, discardLogger())
	orderID := kernel.NewUUID()
	agentID := kernel.NewUUID()
	sub, _ := registry.Join(orderID, "conn-1", kernel.NewUUID(), order.RoleCustomer)

	loc := mustGeoPoint(t, 40.7128, -74.0060)
	for _, offset := range []int{10, 30, 20, 40} {
		hub.Broadcast(orderID, agentID, loc, testNow.Add(time.Duration(offset)*time.Second))
	}

	events := drainLocations(sub)
	require.Len(t, events, 3)
	assert.Equal(t, testNow.Add(10*time.Second), events[0].At)
	assert.Equal(t, testNow.Add(30*time.Second), events[1].At)
	assert.Equal(t, testNow.Add(40*time.Second), events[2].At)
}

func TestHub_Broadcast_SameTimestampIsDropped(t *testing.T) {
	registry := realtime.NewRegistry()
	hub := realtime.NewHub(registry, discardLogger())
	orderID := kernel.NewUUID()
	agentID := kernel.NewUUID()
	sub, _ := registry.Join(orderID, "conn-1", kernel.NewUUID(), order.RoleCustomer)

	loc := mustGeoPoint(t, 40.7128, -74.0060)
	hub.Broadcast(orderID, agentID, loc, testNow)
	hub.Broadcast(orderID, agentID, loc, testNow)

	assert.Len(t, drainLocations(sub), 1)
}

func TestHub_Broadcast_OrderingIsPerOrderAndAgent(t *testing.T) {
	registry := realtime.NewRegistry()
	hub := realtime.NewHub(registry, discardLogger())
	agentID := kernel.NewUUID()
	firstOrder := kernel.NewUUID()
	secondOrder := kernel.NewUUID()
	sub, _ := registry.Join(secondOrder, "conn-1", kernel.NewUUID(), order.RoleCustomer)

	loc := mustGeoPoint(t, 40.7128, -74.0060)
	hub.Broadcast(firstOrder, agentID, loc, testNow.Add(time.Minute))

	// An older timestamp on a different order is still fresh for that order.
	hub.Broadcast(secondOrder, agentID, loc, testNow)

	assert.Len(t, drainLocations(sub), 1)
}

func TestHub_Broadcast_DropsOldestOnSaturatedSubscriber(t *testing.T) {
	registry := realtime.NewRegistry()
	hub := realtime.NewHub(registry, discardLogger())
	orderID := kernel.NewUUID()
	agentID := kernel.NewUUID()
	saturated, _ := registry.Join(orderID, "conn-1", kernel.NewUUID(), order.RoleCustomer)

	loc := mustGeoPoint(t, 40.7128, -74.0060)

	total := 25
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= total; i++ {
			hub.Broadcast(orderID, agentID, loc, testNow.Add(time.Duration(i)*time.Second))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a subscriber that is not draining")
	}

	events := drainLocations(saturated)
	require.NotEmpty(t, events)

	// The newest position survives; older ones were discarded to make room.
	assert.Equal(t, testNow.Add(time.Duration(total)*time.Second), events[len(events)-1].At)
	for i := 1; i < len(events); i++ {
		assert.True(t, events[i].At.After(events[i-1].At))
	}
}

func TestHub_Broadcast_SaturatedSubscriberDoesNotStarveOthers(t *testing.T) {
	registry := realtime.NewRegistry()
	hub := realtime.NewHub(registry, discardLogger())
	orderID := kernel.NewUUID()
	agentID := kernel.NewUUID()
	registry.Join(orderID, "conn-slow", kernel.NewUUID(), order.RoleCustomer)
	healthy, _ := registry.Join(orderID, "conn-fast", kernel.NewUUID(), order.RoleBusiness)

	loc := mustGeoPoint(t, 40.7128, -74.0060)
	for i := 1; i <= 40; i++ {
		hub.Broadcast(orderID, agentID, loc, testNow.Add(time.Duration(i)*time.Second))
		// The healthy subscriber drains as it goes and misses nothing.
		e := <-healthy.LocationEvents()
		assert.Equal(t, testNow.Add(time.Duration(i)*time.Second), e.At)
	}
}

func TestHub_LastLocation(t *testing.T) {
	registry := realtime.NewRegistry()
	hub := realtime.NewHub(registry, discardLogger())
	orderID := kernel.NewUUID()
	agentID := kernel.NewUUID()

	_, ok := hub.LastLocation(orderID)
	assert.False(t, ok)

	hub.Broadcast(orderID, agentID, mustGeoPoint(t, 40.7128, -74.0060), testNow)
	hub.Broadcast(orderID, agentID, mustGeoPoint(t, 40.7200, -74.0000), testNow.Add(time.Second))

	last, ok := hub.LastLocation(orderID)
	require.True(t, ok)
	assert.InDelta(t, 40.7200, last.Lat, 1e-9)
	assert.InDelta(t, -74.0000, last.Lng, 1e-9)
	assert.Equal(t, testNow.Add(time.Second), last.At)
}

func TestHub_Forget(t *testing.T) {
	registry := realtime.NewRegistry()
	hub := realtime.NewHub(registry, discardLogger())
	orderID := kernel.NewUUID()
	agentID := kernel.NewUUID()
	sub, _ := registry.Join(orderID, "conn-1", kernel.NewUUID(), order.RoleCustomer)

	loc := mustGeoPoint(t, 40.7128, -74.0060)
	hub.Broadcast(orderID, agentID, loc, testNow.Add(time.Minute))
	hub.Forget(orderID)

	_, ok := hub.LastLocation(orderID)
	assert.False(t, ok)

	// Forgetting also resets the ordering watermark.
	drainLocations(sub)
	hub.Broadcast(orderID, agentID, loc, testNow)
	assert.Len(t, drainLocations(sub), 1)
}
