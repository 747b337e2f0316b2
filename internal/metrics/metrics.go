// Package metrics defines the Prometheus collectors exposed on /metrics.
//
// Collectors are registered with the default registry at init time through
// promauto, so any package may record into them without wiring.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tripplanner"

var (
	// VotesCast counts vote writes by result (created, updated, error).
	VotesCast = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "votes_cast_total",
		Help:      "Votes written through a coordinator session.",
	}, []string{"result"})

	// Finalizations counts finalize attempts by outcome
	// (confirmed, pending, no_votes, not_voting, error).
	Finalizations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "finalize_total",
		Help:      "Finalize attempts by outcome.",
	}, []string{"outcome"})

	// Reconciles counts refetches triggered by change events.
	Reconciles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconcile_total",
		Help:      "Session refetches triggered by change events, by table and result.",
	}, []string{"table", "result"})

	// RealtimeEvents counts change notifications received from Postgres.
	RealtimeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "realtime_events_total",
		Help:      "Change notifications received from Postgres, by table.",
	}, []string{"table"})

	// RealtimeDropped counts events discarded because a subscriber's buffer was full.
	RealtimeDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "realtime_dropped_total",
		Help:      "Change events dropped on a full subscriber buffer.",
	})

	// RealtimeResyncs counts broadcasts sent after the listener reconnected.
	RealtimeResyncs = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "realtime_resyncs_total",
		Help:      "Resync broadcasts after a listener reconnect.",
	})

	// LiveSessions is the number of open WebSocket board sessions.
	LiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_sessions",
		Help:      "Open live board connections.",
	})
)
