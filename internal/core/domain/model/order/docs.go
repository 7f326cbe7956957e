// Package order contains the Order aggregate root and its lifecycle state
// machine for the dispatch domain.
//
// An Order moves through a fixed chain of statuses from pending to delivered,
// with cancellation reachable from any non-terminal state. Every accepted
// write appends exactly one entry to the status history and increments the
// aggregate version, which persistence uses for optimistic concurrency.
//
// Status transitions are requested by an Actor (customer, business or agent)
// and the aggregate enforces both the structural legality of the transition
// and the actor's authorization for it. Assignment to an agent is a separate
// operation that bypasses the actor-facing state machine and is driven by the
// dispatch matcher.
package order
