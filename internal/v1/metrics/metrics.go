package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the card-calling session service.
//
// Naming convention: namespace_subsystem_name
// - namespace: card_session (application-level grouping)
// - subsystem: websocket, room, generator (feature-level grouping)
//
// Gauges track current state (connections, rooms, spectators); counters track
// cumulative events (frames, reactions, closes); histograms track latency.

var (
	// ActiveConnections tracks currently open websocket connections.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "card_session",
		Subsystem: "websocket",
		Name:      "connections_active",
		Help:      "Current number of active WebSocket connections",
	})

	// ActiveRooms tracks currently live rooms.
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "card_session",
		Subsystem: "room",
		Name:      "rooms_active",
		Help:      "Current number of active rooms",
	})

	// RoomParticipants tracks participants per room by role.
	RoomParticipants = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "card_session",
		Subsystem: "room",
		Name:      "participants_count",
		Help:      "Number of participants in each room by role",
	}, []string{"room_id", "role"})

	// FramesTotal counts protocol frames by type and direction.
	FramesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "card_session",
		Subsystem: "websocket",
		Name:      "frames_total",
		Help:      "Total protocol frames processed",
	}, []string{"frame_type", "direction"})

	// ConnectionCloses counts typed connection closures by reason.
	ConnectionCloses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "card_session",
		Subsystem: "websocket",
		Name:      "closes_total",
		Help:      "Total connection closures by reason",
	}, []string{"reason"})

	// ReactionsCoalesced counts spectator reactions folded into burst windows.
	ReactionsCoalesced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "card_session",
		Subsystem: "room",
		Name:      "reactions_coalesced_total",
		Help:      "Total spectator reactions absorbed by the coalescer",
	})

	// ReactionBursts counts burst frames emitted after window close.
	ReactionBursts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "card_session",
		Subsystem: "room",
		Name:      "reaction_bursts_total",
		Help:      "Total reaction bursts fanned out",
	})

	// BoardGenerationDuration tracks end-to-end board generation latency.
	BoardGenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "card_session",
		Subsystem: "generator",
		Name:      "generation_seconds",
		Help:      "Time spent generating a board batch",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 15, 30, 60},
	})

	// BoardGenerations counts generation requests by outcome.
	BoardGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "card_session",
		Subsystem: "generator",
		Name:      "generations_total",
		Help:      "Total board generation requests by outcome",
	}, []string{"outcome"})

	// RateLimitExceeded counts rejected requests per endpoint and limit type.
	RateLimitExceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "card_session",
		Subsystem: "ratelimit",
		Name:      "exceeded_total",
		Help:      "Total requests rejected by rate limiting",
	}, []string{"endpoint", "limit_type"})
)

func IncConnection() {
	ActiveConnections.Inc()
}

func DecConnection() {
	ActiveConnections.Dec()
}
