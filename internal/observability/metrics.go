package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unajuda_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "unajuda_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// VotesCast counts vote ledger transitions by target kind.
	VotesCast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unajuda_votes_cast_total",
		Help: "Vote ledger transitions by target and transition",
	}, []string{"target", "transition"})

	// BadgesAwarded counts newly inserted user badges.
	BadgesAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unajuda_badges_awarded_total",
		Help: "Badges awarded by badge name",
	}, []string{"badge"})

	// BadgeConfigErrors counts catalog entries skipped because of a bad requirement type.
	BadgeConfigErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unajuda_badge_config_errors_total",
		Help: "Badge catalog entries with an unknown requirement type",
	}, []string{"requirement_type"})

	// StatsCacheResults counts stats cache lookups by result (hit, miss, error, bypass).
	StatsCacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unajuda_stats_cache_total",
		Help: "Stats cache lookups by result",
	}, []string{"result"})

	// WebSocketConnectionsTotal is the gauge of active change-feed connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "unajuda_websocket_connections",
		Help: "Active WebSocket change-feed connections",
	})

	// ChangePulses counts change pulses relayed to sockets by table.
	ChangePulses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unajuda_change_pulses_total",
		Help: "Change pulses delivered to subscribers by table",
	}, []string{"table"})

	// WebSocketBackpressureDrops counts messages dropped because a client send buffer was full.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unajuda_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
