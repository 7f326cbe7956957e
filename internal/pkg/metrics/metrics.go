// Package metrics exposes the process's Prometheus counters. Counters are
// registered on the default registry and served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AcceptWins counts accepts that won the assignment race.
	AcceptWins = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_accept_wins_total",
		Help: "Number of accept calls that assigned the order.",
	})

	// AcceptConflicts counts accepts that lost the assignment race.
	AcceptConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_accept_conflicts_total",
		Help: "Number of accept calls that lost to a concurrent accept.",
	})

	// StaleLocationPings counts position reports dropped by the
	// monotonicity check.
	StaleLocationPings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_stale_location_pings_total",
		Help: "Number of location pings dropped as out of order.",
	})

	// DroppedLocationEvents counts location updates discarded because a
	// subscriber's queue was full.
	DroppedLocationEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_dropped_location_events_total",
		Help: "Number of location updates dropped on saturated subscriber queues.",
	})

	// EvictedSubscribers counts subscribers disconnected for not draining
	// status events within the delivery timeout.
	EvictedSubscribers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_evicted_subscribers_total",
		Help: "Number of subscribers evicted on status delivery timeout.",
	})

	// StatusEventsPublished counts committed status changes fanned out to
	// subscribers.
	StatusEventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_status_events_published_total",
		Help: "Number of status change events published.",
	})
)
