package realtime_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

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

type orderFixture struct {
	customerID kernel.UUID
	businessID kernel.UUID
	agentID    kernel.UUID
	order      *order.Order
}

func newPendingOrder(t *testing.T) orderFixture {
	t.Helper()

	f := orderFixture{
		customerID: kernel.NewUUID(),
		businessID: kernel.NewUUID(),
		agentID:    kernel.NewUUID(),
	}

	o, err := order.NewOrder(
		kernel.NewUUID(),
		f.customerID,
		f.businessID,
		mustGeoPoint(t, 40.7128, -74.0060),
		mustGeoPoint(t, 40.7580, -73.9855),
		nil,
		testNow,
	)
	require.NoError(t, err)
	f.order = o

	return f
}

func newAssignedOrder(t *testing.T) orderFixture {
	t.Helper()

	f := newPendingOrder(t)
	business := mustActor(t, f.businessID, order.RoleBusiness)

	now := testNow
	for _, s := range []order.Status{order.Confirmed, order.Preparing, order.Ready} {
		now = now.Add(time.Minute)
		_, err := f.order.ChangeStatus(s, business, now)
		require.NoError(t, err)
	}
	require.NoError(t, f.order.Assign(f.agentID, now.Add(time.Minute)))

	return f
}

func newCancelledOrder(t *testing.T) orderFixture {
	t.Helper()

	f := newPendingOrder(t)
	customer := mustActor(t, f.customerID, order.RoleCustomer)

	_, err := f.order.ChangeStatus(order.Cancelled, customer, testNow.Add(time.Minute))
	require.NoError(t, err)

	return f
}
