package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DebatesCreated counts successfully created debates.
	DebatesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_debates_created_total",
		Help: "Total number of debates created",
	})

	// ArgumentsPosted counts posted arguments by side.
	ArgumentsPosted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_arguments_posted_total",
		Help: "Total number of arguments posted by side",
	}, []string{"side"})

	// VotesCast counts accepted votes by direction.
	VotesCast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_votes_cast_total",
		Help: "Total number of votes cast by direction",
	}, []string{"direction"})

	// EngineRejections counts refused engine operations by error code.
	EngineRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_engine_rejections_total",
		Help: "Total number of rejected debate engine operations",
	}, []string{"operation", "code"})

	// DebatesSettled counts debates whose result was settled, by winner.
	DebatesSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_debates_settled_total",
		Help: "Total number of debates settled by winner",
	}, []string{"winner"})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// EventsPublished counts debate events published to subscribers.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_events_published_total",
		Help: "Total debate events published by type",
	}, []string{"event_type"})

	// LiveConnections is the gauge of open live feed sockets.
	LiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_live_connections",
		Help: "Number of open debate live feed connections",
	})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "arena_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
