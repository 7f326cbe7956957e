package commands_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateConditional(ctx context.Context, o *order.Order, expectedVersion int) error {
	args := m.Called(ctx, o, expectedVersion)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetAllInStatus(ctx context.Context, status order.Status) ([]*order.Order, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

type MockAgentRepository struct{ mock.Mock }

func (m *MockAgentRepository) Add(ctx context.Context, a *agent.Agent) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAgentRepository) Update(ctx context.Context, a *agent.Agent) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAgentRepository) Get(ctx context.Context, id kernel.UUID) (*agent.Agent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*agent.Agent), args.Error(1)
}

func (m *MockAgentRepository) GetAllAvailable(ctx context.Context) ([]*agent.Agent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*agent.Agent), args.Error(1)
}

type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockUoW) AgentRepository() ports.AgentRepository {
	args := m.Called()
	return args.Get(0).(ports.AgentRepository)
}

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	args := m.Called()
	return args.Get(0).(commands.UoW)
}

type MockStatusPublisher struct{ mock.Mock }

func (m *MockStatusPublisher) PublishStatusChanged(ctx context.Context, o *order.Order) {
	m.Called(ctx, o)
}

func (m *MockStatusPublisher) PublishOrderTaken(ctx context.Context, o *order.Order, losers []kernel.UUID) {
	m.Called(ctx, o, losers)
}

func (m *MockStatusPublisher) PublishOffer(ctx context.Context, o *order.Order, agentIDs []kernel.UUID) {
	m.Called(ctx, o, agentIDs)
}

type MockLocationBroadcaster struct{ mock.Mock }

func (m *MockLocationBroadcaster) Broadcast(orderID kernel.UUID, agentID kernel.UUID, location kernel.GeoPoint, at time.Time) {
	m.Called(orderID, agentID, location, at)
}

// newUoWBundle wires a MockUoW with its repositories and factory for the
// happy path: Begin succeeds, Rollback is tolerated, repos are returned on
// demand.
func newUoWBundle(t *testing.T) (*MockUoWFactory, *MockUoW, *MockOrderRepository, *MockAgentRepository) {
	t.Helper()

	orderRepo := &MockOrderRepository{}
	agentRepo := &MockAgentRepository{}
	uow := &MockUoW{}
	factory := &MockUoWFactory{}

	factory.On("Create").Return(uow)
	uow.On("Begin", mock.Anything).Return(nil)
	uow.On("Rollback", mock.Anything).Return(nil)
	uow.On("OrderRepository").Return(orderRepo).Maybe()
	uow.On("AgentRepository").Return(agentRepo).Maybe()

	return factory, uow, orderRepo, agentRepo
}

// orderInStatus builds an order walked forward to the target status. The
// returned business and agent actors own the order's business/agent roles.
func orderInStatus(t *testing.T, target order.Status) (*order.Order, order.Actor, order.Actor) {
	t.Helper()

	customerID := kernel.NewUUID()
	businessID := kernel.NewUUID()
	agentID := kernel.NewUUID()

	o, err := order.NewOrder(kernel.NewUUID(), customerID, businessID,
		mustGeoPoint(t, 40.7580, -73.9855), mustGeoPoint(t, 40.7128, -74.0060), nil, testNow)
	require.NoError(t, err)

	business := mustActor(t, businessID, order.RoleBusiness)
	agentActor := mustActor(t, agentID, order.RoleAgent)

	steps := []struct {
		status order.Status
		actor  order.Actor
	}{
		{order.Confirmed, business},
		{order.Preparing, business},
		{order.Ready, business},
		{order.Assigned, order.Actor{}},
		{order.PickedUp, agentActor},
		{order.OnTheWay, agentActor},
		{order.Delivered, agentActor},
	}

	for _, step := range steps {
		if o.Status() == target {
			break
		}
		if step.status == order.Assigned {
			require.NoError(t, o.Assign(agentID, testNow))
			continue
		}
		_, err = o.ChangeStatus(step.status, step.actor, testNow)
		require.NoError(t, err)
	}

	return o, business, agentActor
}

// fakeStore is an in-memory, mutex-guarded order store used by the
// concurrency tests. UpdateConditional performs the same compare-and-set
// the postgres repository does.
type fakeStore struct {
	mu     sync.Mutex
	orders map[string]*order.Order
	agents map[string]*agent.Agent
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders: make(map[string]*order.Order),
		agents: make(map[string]*agent.Agent),
	}
}

func (s *fakeStore) putOrder(o *order.Order)  { s.orders[o.ID().String()] = o }
func (s *fakeStore) putAgent(a *agent.Agent)  { s.agents[a.ID().String()] = a }
func (s *fakeStore) order(id kernel.UUID) *order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[id.String()]
}

type fakeUoW struct{ store *fakeStore }

func (u fakeUoW) Begin(context.Context) error    { return nil }
func (u fakeUoW) Commit(context.Context) error   { return nil }
func (u fakeUoW) Rollback(context.Context) error { return nil }

func (u fakeUoW) OrderRepository() ports.OrderRepository { return fakeOrderRepo{store: u.store} }
func (u fakeUoW) AgentRepository() ports.AgentRepository { return fakeAgentRepo{store: u.store} }

type fakeUoWFactory struct{ store *fakeStore }

func (f fakeUoWFactory) Create() commands.UoW { return fakeUoW{store: f.store} }

type fakeOrderRepo struct{ store *fakeStore }

func (r fakeOrderRepo) Add(_ context.Context, o *order.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.putOrder(o)
	return nil
}

func (r fakeOrderRepo) UpdateConditional(_ context.Context, o *order.Order, expectedVersion int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.orders[o.ID().String()]
	if !ok || stored.Version() != expectedVersion {
		return ports.ErrStaleVersion
	}
	r.store.putOrder(o)
	return nil
}

func (r fakeOrderRepo) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	o, ok := r.store.orders[id.String()]
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	// reconstruct so concurrent handlers never share aggregate state
	return order.RestoreOrder(
		o.ID(), o.CustomerID(), o.BusinessID(),
		o.RestaurantLocation(), o.DeliveryLocation(), o.PreferredVehicle(),
		o.AgentID(), o.Status(), o.History(), o.Version(),
	)
}

func (r fakeOrderRepo) GetAllInStatus(_ context.Context, status order.Status) ([]*order.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var result []*order.Order
	for _, o := range r.store.orders {
		if o.Status() == status {
			result = append(result, o)
		}
	}
	return result, nil
}

type fakeAgentRepo struct{ store *fakeStore }

func (r fakeAgentRepo) Add(_ context.Context, a *agent.Agent) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.putAgent(a)
	return nil
}

func (r fakeAgentRepo) Update(_ context.Context, a *agent.Agent) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.putAgent(a)
	return nil
}

func (r fakeAgentRepo) Get(_ context.Context, id kernel.UUID) (*agent.Agent, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	a, ok := r.store.agents[id.String()]
	if !ok {
		return nil, errs.NewObjectNotFoundError("agent", id.String())
	}
	return agent.RestoreAgent(
		a.ID(), a.Name(), a.Vehicle(), a.IsAvailable(),
		a.Location(), a.LastLocationAt(), a.ActiveOrderID(),
	)
}

func (r fakeAgentRepo) GetAllAvailable(_ context.Context) ([]*agent.Agent, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var result []*agent.Agent
	for _, a := range r.store.agents {
		if a.IsAvailable() {
			result = append(result, a)
		}
	}
	return result, nil
}

type noopPublisher struct{}

func (noopPublisher) PublishStatusChanged(context.Context, *order.Order)                {}
func (noopPublisher) PublishOrderTaken(context.Context, *order.Order, []kernel.UUID)    {}
func (noopPublisher) PublishOffer(context.Context, *order.Order, []kernel.UUID)         {}
