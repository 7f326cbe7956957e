package commands

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
)

var (
	// ErrNoReadyOrders signals an empty sweep: nothing is waiting for
	// dispatch. Not a failure.
	ErrNoReadyOrders = errors.New("no ready orders found")

	// ErrNoAvailableAgents signals that ready orders exist but nobody can
	// take them right now. Not a failure.
	ErrNoAvailableAgents = errors.New("no available agents found")
)

// OfferOrdersCommandHandler runs the periodic dispatch sweep.
//
// Each sweep first withdraws offer rounds whose window has passed, then
// matches every ready order that has no open round against the available
// agent pool via the eligibility service, opens a fresh round on the offer
// board and pushes the offer to the selected agents. Orders with an open,
// unexpired round are left alone so agents get the full window to respond.
type OfferOrdersCommandHandler struct {
	uowFactory  UoWFactory
	eligibility services.Eligibility
	board       *services.OfferBoard
	publisher   StatusPublisher
	offerTTL    time.Duration
}

// NewOfferOrdersCommandHandler creates a handler for dispatch sweeps.
// offerTTL bounds how long an offer round stays open.
func NewOfferOrdersCommandHandler(
	uowFactory UoWFactory,
	eligibility services.Eligibility,
	board *services.OfferBoard,
	publisher StatusPublisher,
	offerTTL time.Duration,
) OfferOrdersCommandHandler {
	return OfferOrdersCommandHandler{
		uowFactory:  uowFactory,
		eligibility: eligibility,
		board:       board,
		publisher:   publisher,
		offerTTL:    offerTTL,
	}
}

// Handle runs one sweep. Returns ErrNoReadyOrders or ErrNoAvailableAgents
// when there is nothing to do; callers treat both as quiet periods.
func (h OfferOrdersCommandHandler) Handle(ctx context.Context, command OfferOrdersCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	now := time.Now()
	h.board.Expire(now)

	readyOrders, agents, err := h.loadPool(ctx)
	if err != nil {
		return err
	}

	for _, o := range readyOrders {
		if h.board.HasOpenOffer(o.ID(), now) {
			continue
		}

		eligible, err := h.eligibility.EligibleAgents(o, agents)
		if errors.Is(err, services.ErrNoEligibleAgents) {
			continue
		}
		if err != nil {
			return err
		}

		agentIDs := make([]kernel.UUID, 0, len(eligible))
		for _, a := range eligible {
			agentIDs = append(agentIDs, a.ID())
		}

		offered := h.board.Open(o.ID(), agentIDs, now.Add(h.offerTTL))
		if len(offered) > 0 {
			h.publisher.PublishOffer(ctx, o, offered)
		}
	}

	return nil
}

// loadPool reads the ready orders and available agents in one read-only
// transaction.
func (h OfferOrdersCommandHandler) loadPool(ctx context.Context) ([]*order.Order, []*agent.Agent, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	readyOrders, err := uow.OrderRepository().GetAllInStatus(ctx, order.Ready)
	if err != nil {
		return nil, nil, err
	}
	if len(readyOrders) == 0 {
		return nil, nil, ErrNoReadyOrders
	}

	agents, err := uow.AgentRepository().GetAllAvailable(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(agents) == 0 {
		return nil, nil, ErrNoAvailableAgents
	}

	return readyOrders, agents, nil
}
