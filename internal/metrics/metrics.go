// Package metrics defines the prometheus collectors shared across the engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Vote ledger metrics
var (
	// VotesCastTotal tracks successfully persisted votes.
	VotesCastTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "votes_cast_total",
			Help: "Total votes successfully cast",
		},
	)

	// VotesRetractedTotal tracks successfully removed votes.
	VotesRetractedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "votes_retracted_total",
			Help: "Total votes successfully retracted",
		},
	)

	// VoteRejectionsTotal tracks rejected vote mutations by reason.
	VoteRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vote_rejections_total",
			Help: "Total rejected vote mutations by reason",
		},
		[]string{"reason"},
	)
)

// Poll lifecycle metrics
var (
	// PollsClosedTotal tracks poll closings by mode (manual or expired).
	PollsClosedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polls_closed_total",
			Help: "Total polls transitioned to closed by mode",
		},
		[]string{"mode"},
	)

	// SweeperRunsTotal tracks expiration sweeper ticks by outcome.
	SweeperRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweeper_runs_total",
			Help: "Total expiration sweeper runs by outcome",
		},
		[]string{"outcome"},
	)

	// SweeperDuration tracks how long a sweep takes in seconds.
	SweeperDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sweeper_duration_seconds",
			Help:    "Expiration sweep duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)
)

// Realtime hub metrics
var (
	// HubActiveSubscribers tracks currently connected subscribers.
	HubActiveSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_active_subscribers",
			Help: "Currently connected realtime subscribers",
		},
	)

	// HubActivePolls tracks polls with at least one subscriber.
	HubActivePolls = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_active_polls",
			Help: "Polls with at least one realtime subscriber",
		},
	)

	// HubDeltasPublishedTotal tracks published result deltas.
	HubDeltasPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_deltas_published_total",
			Help: "Total result deltas published to the hub",
		},
	)

	// HubSlowClientsEvicted tracks subscribers dropped for not keeping up.
	HubSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_slow_clients_evicted_total",
			Help: "Subscribers evicted because their send buffer was full",
		},
	)

	// WebSocketMessageSendDuration tracks websocket write latency in seconds.
	WebSocketMessageSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_message_send_duration_seconds",
			Help:    "WebSocket message send duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)

	// WebSocketPingFailures tracks failed keepalive pings.
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Total failed WebSocket keepalive pings",
		},
	)
)
