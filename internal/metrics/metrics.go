// Package metrics exposes Prometheus instrumentation for the signaling
// service: connection/room gauges, event counters, processing latency,
// rate-limit rejections, and circuit-breaker state.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "meetcore"

var (
	ActiveWebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "websocket",
		Name:      "active_connections",
		Help:      "Number of currently open signaling websocket connections.",
	})

	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "room",
		Name:      "active_total",
		Help:      "Number of live rooms in the registry.",
	})

	RoomParticipants = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "room",
		Name:      "participants",
		Help:      "Connected participant count per room.",
	}, []string{"room_id"})

	WebsocketEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "websocket",
		Name:      "events_total",
		Help:      "Inbound websocket events processed, by event type and outcome.",
	}, []string{"event_type", "status"})

	EventProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "websocket",
		Name:      "event_processing_seconds",
		Help:      "Latency of handling a single inbound event.",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"event_type"})

	WebrtcConnectionAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "webrtc",
		Name:      "relay_attempts_total",
		Help:      "Peer-to-peer signaling relay attempts, by outcome.",
	}, []string{"status"})

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "circuit_breaker",
		Name:      "state",
		Help:      "Circuit breaker state per collaborator: 0=closed, 1=open, 2=half-open.",
	}, []string{"collaborator"})

	CircuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "circuit_breaker",
		Name:      "rejections_total",
		Help:      "Calls rejected because a collaborator's circuit breaker was open.",
	}, []string{"collaborator"})

	RateLimitExceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rate_limit",
		Name:      "exceeded_total",
		Help:      "Requests rejected by the rate limiter, by endpoint.",
	}, []string{"endpoint"})

	RateLimitRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rate_limit",
		Name:      "requests_total",
		Help:      "Requests evaluated by the rate limiter, by endpoint.",
	}, []string{"endpoint"})

	MediaWorkerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "media",
		Name:      "worker_operations_total",
		Help:      "Calls into the media worker, by operation and outcome.",
	}, []string{"operation", "status"})
)

func IncConnection() { ActiveWebSocketConnections.Inc() }
func DecConnection() { ActiveWebSocketConnections.Dec() }
