// Package realtime fans committed order events out to live subscribers.
//
// A subscriber is one connection watching one order. Each subscription
// carries two independent channels: a status channel, on which delivery is
// reliable (the publisher blocks briefly and evicts subscribers that do not
// drain it), and a location channel, on which delivery is best-effort (the
// queue is bounded and the oldest update is dropped when it overflows, so a
// lagging reader always converges on the newest position).
//
// The Hub additionally enforces per-courier ordering of location updates and
// caches the last broadcast position per order so that late joiners can be
// primed immediately.
package realtime
