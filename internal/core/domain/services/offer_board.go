package services

import (
	"sync"
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// offer is a single open dispatch round for one order.
type offer struct {
	agents    map[kernel.UUID]struct{}
	expiresAt time.Time
}

// OfferBoard tracks which agents currently hold an open offer for which
// order, and which agents have declined an order. It is an in-memory,
// process-local service; losing it on restart only delays re-offering by
// one sweep interval.
//
// Offers expire after a bounded window and the order is then re-offered to
// the remaining pool by the sweep job. Declines outlive offer expiry so a
// declining agent is not nagged with the same order, and are dropped only
// when the order is closed (assigned or cancelled).
//
// All methods are safe for concurrent use.
type OfferBoard struct {
	mu       sync.Mutex
	offers   map[kernel.UUID]*offer
	declines map[kernel.UUID]map[kernel.UUID]struct{}
}

// NewOfferBoard creates an empty OfferBoard.
func NewOfferBoard() *OfferBoard {
	return &OfferBoard{
		offers:   make(map[kernel.UUID]*offer),
		declines: make(map[kernel.UUID]map[kernel.UUID]struct{}),
	}
}

// Open records an open offer for the order to the given agents, replacing
// any previous round, and returns the agents actually offered to (declined
// agents are filtered out). The offer expires at expiresAt.
func (b *OfferBoard) Open(orderID kernel.UUID, agentIDs []kernel.UUID, expiresAt time.Time) []kernel.UUID {
	b.mu.Lock()
	defer b.mu.Unlock()

	declined := b.declines[orderID]
	round := &offer{
		agents:    make(map[kernel.UUID]struct{}, len(agentIDs)),
		expiresAt: expiresAt,
	}

	var offered []kernel.UUID
	for _, id := range agentIDs {
		if _, skip := declined[id]; skip {
			continue
		}
		if _, dup := round.agents[id]; dup {
			continue
		}
		round.agents[id] = struct{}{}
		offered = append(offered, id)
	}

	if len(offered) == 0 {
		delete(b.offers, orderID)
		return nil
	}

	b.offers[orderID] = round
	return offered
}

// Decline records that the agent turned the order down and removes the agent
// from the open round, if any.
func (b *OfferBoard) Decline(orderID kernel.UUID, agentID kernel.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	declined, ok := b.declines[orderID]
	if !ok {
		declined = make(map[kernel.UUID]struct{})
		b.declines[orderID] = declined
	}
	declined[agentID] = struct{}{}

	if round, ok := b.offers[orderID]; ok {
		delete(round.agents, agentID)
		if len(round.agents) == 0 {
			delete(b.offers, orderID)
		}
	}
}

// HasDeclined reports whether the agent has declined the order.
func (b *OfferBoard) HasDeclined(orderID kernel.UUID, agentID kernel.UUID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.declines[orderID][agentID]
	return ok
}

// HasOpenOffer reports whether the order has an open, unexpired round.
func (b *OfferBoard) HasOpenOffer(orderID kernel.UUID, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	round, ok := b.offers[orderID]
	return ok && round.expiresAt.After(now)
}

// HasOffered reports whether the agent holds an open, unexpired offer for
// the order. Used by the join policy to let offered agents watch an order
// before assignment.
func (b *OfferBoard) HasOffered(orderID kernel.UUID, agentID kernel.UUID, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	round, ok := b.offers[orderID]
	if !ok || !round.expiresAt.After(now) {
		return false
	}
	_, offered := round.agents[agentID]
	return offered
}

// Close removes all offer state for the order, including declines, and
// returns the agents that held an open offer. Called when the order leaves
// the ready pool (assigned or cancelled).
func (b *OfferBoard) Close(orderID kernel.UUID) []kernel.UUID {
	b.mu.Lock()
	defer b.mu.Unlock()

	var held []kernel.UUID
	if round, ok := b.offers[orderID]; ok {
		for id := range round.agents {
			held = append(held, id)
		}
		delete(b.offers, orderID)
	}
	delete(b.declines, orderID)

	return held
}

// Expire drops offer rounds whose window has passed, keeping declines, and
// returns the IDs of orders whose round expired. Those orders are eligible
// for a fresh round on the next sweep.
func (b *OfferBoard) Expire(now time.Time) []kernel.UUID {
	b.mu.Lock()
	defer b.mu.Unlock()

	var expired []kernel.UUID
	for orderID, round := range b.offers {
		if !round.expiresAt.After(now) {
			expired = append(expired, orderID)
			delete(b.offers, orderID)
		}
	}

	return expired
}
