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
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
)

func TestChangeOrderStatusCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()
	factory, uow, orderRepo, _ := newUoWBundle(t)
	publisher := &MockStatusPublisher{}

	o, business, _ := orderInStatus(t, order.Pending)
	orderRepo.On("Get", ctx, o.ID()).Return(o, nil)
	orderRepo.On("UpdateConditional", ctx, o, 1).Return(nil)
	uow.On("Commit", ctx).Return(nil)
	publisher.On("PublishStatusChanged", ctx, o).Return()

	handler := commands.NewChangeOrderStatusCommandHandler(factory, services.NewOfferBoard(), publisher)
	cmd, err := commands.NewChangeOrderStatusCommand(o.ID(), order.Confirmed, business)
	require.NoError(t, err)

	updated, err := handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, order.Confirmed, updated.Status())
	assert.Equal(t, 2, updated.Version())
	orderRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestChangeOrderStatusCommandHandler_Handle_Idempotent(t *testing.T) {
	ctx := t.Context()
	factory, _, orderRepo, _ := newUoWBundle(t)
	publisher := &MockStatusPublisher{}

	o, business, _ := orderInStatus(t, order.Confirmed)
	orderRepo.On("Get", ctx, o.ID()).Return(o, nil)

	handler := commands.NewChangeOrderStatusCommandHandler(factory, services.NewOfferBoard(), publisher)
	cmd, err := commands.NewChangeOrderStatusCommand(o.ID(), order.Confirmed, business)
	require.NoError(t, err)

	updated, err := handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version())
	// no write, no commit, no publish
	orderRepo.AssertNotCalled(t, "UpdateConditional", mock.Anything, mock.Anything, mock.Anything)
	publisher.AssertNotCalled(t, "PublishStatusChanged", mock.Anything, mock.Anything)
}

func TestChangeOrderStatusCommandHandler_Handle_InvalidTransition(t *testing.T) {
	ctx := t.Context()
	factory, _, orderRepo, _ := newUoWBundle(t)
	publisher := &MockStatusPublisher{}

	o, business, _ := orderInStatus(t, order.Pending)
	orderRepo.On("Get", ctx, o.ID()).Return(o, nil)

	handler := commands.NewChangeOrderStatusCommandHandler(factory, services.NewOfferBoard(), publisher)
	cmd, err := commands.NewChangeOrderStatusCommand(o.ID(), order.Ready, business)
	require.NoError(t, err)

	_, err = handler.Handle(ctx, cmd)

	assert.ErrorIs(t, err, order.ErrInvalidTransition)
	orderRepo.AssertNotCalled(t, "UpdateConditional", mock.Anything, mock.Anything, mock.Anything)
}

func TestChangeOrderStatusCommandHandler_Handle_Forbidden(t *testing.T) {
	ctx := t.Context()
	factory, _, orderRepo, _ := newUoWBundle(t)
	publisher := &MockStatusPublisher{}

	o, _, _ := orderInStatus(t, order.Pending)
	orderRepo.On("Get", ctx, o.ID()).Return(o, nil)

	stranger := mustActor(t, kernel.NewUUID(), order.RoleBusiness)

	handler := commands.NewChangeOrderStatusCommandHandler(factory, services.NewOfferBoard(), publisher)
	cmd, err := commands.NewChangeOrderStatusCommand(o.ID(), order.Confirmed, stranger)
	require.NoError(t, err)

	_, err = handler.Handle(ctx, cmd)

	assert.ErrorIs(t, err, order.ErrForbidden)
}

func TestChangeOrderStatusCommandHandler_Handle_StaleVersion(t *testing.T) {
	ctx := t.Context()
	factory, _, orderRepo, _ := newUoWBundle(t)
	publisher := &MockStatusPublisher{}

	o, business, _ := orderInStatus(t, order.Pending)
	orderRepo.On("Get", ctx, o.ID()).Return(o, nil)
	orderRepo.On("UpdateConditional", ctx, o, 1).Return(ports.ErrStaleVersion)

	handler := commands.NewChangeOrderStatusCommandHandler(factory, services.NewOfferBoard(), publisher)
	cmd, err := commands.NewChangeOrderStatusCommand(o.ID(), order.Confirmed, business)
	require.NoError(t, err)

	_, err = handler.Handle(ctx, cmd)

	assert.ErrorIs(t, err, ports.ErrStaleVersion)
	publisher.AssertNotCalled(t, "PublishStatusChanged", mock.Anything, mock.Anything)
}

func TestChangeOrderStatusCommandHandler_Handle_DeliveredReleasesAgent(t *testing.T) {
	ctx := t.Context()
	factory, uow, orderRepo, agentRepo := newUoWBundle(t)
	publisher := &MockStatusPublisher{}

	o, _, agentActor := orderInStatus(t, order.OnTheWay)
	require.NotNil(t, o.AgentID())

	carrier, err := agent.NewAgent(agentActor.ID(), "Carrier", kernel.VehicleBicycle)
	require.NoError(t, err)
	require.NoError(t, carrier.TakeOrder(o.ID()))

	versionBefore := o.Version()
	orderRepo.On("Get", ctx, o.ID()).Return(o, nil)
	orderRepo.On("UpdateConditional", ctx, o, versionBefore).Return(nil)
	agentRepo.On("Get", ctx, agentActor.ID()).Return(carrier, nil)
	agentRepo.On("Update", ctx, carrier).Return(nil)
	uow.On("Commit", ctx).Return(nil)
	publisher.On("PublishStatusChanged", ctx, o).Return()

	handler := commands.NewChangeOrderStatusCommandHandler(factory, services.NewOfferBoard(), publisher)
	cmd, err := commands.NewChangeOrderStatusCommand(o.ID(), order.Delivered, agentActor)
	require.NoError(t, err)

	updated, err := handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, order.Delivered, updated.Status())
	assert.True(t, carrier.IsAvailable())
	assert.Nil(t, carrier.ActiveOrderID())
	agentRepo.AssertExpectations(t)
}

func TestChangeOrderStatusCommandHandler_Handle_CancelClosesOffers(t *testing.T) {
	ctx := t.Context()
	factory, uow, orderRepo, _ := newUoWBundle(t)
	publisher := &MockStatusPublisher{}
	board := services.NewOfferBoard()

	o, business, _ := orderInStatus(t, order.Ready)
	board.Open(o.ID(), []kernel.UUID{kernel.NewUUID()}, testNow.Add(30*time.Second))

	versionBefore := o.Version()
	orderRepo.On("Get", ctx, o.ID()).Return(o, nil)
	orderRepo.On("UpdateConditional", ctx, o, versionBefore).Return(nil)
	uow.On("Commit", ctx).Return(nil)
	publisher.On("PublishStatusChanged", ctx, o).Return()

	handler := commands.NewChangeOrderStatusCommandHandler(factory, board, publisher)
	cmd, err := commands.NewChangeOrderStatusCommand(o.ID(), order.Cancelled, business)
	require.NoError(t, err)

	updated, err := handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, order.Cancelled, updated.Status())
	assert.False(t, board.HasOpenOffer(o.ID(), testNow))
}
