// Package observability provides metrics and tracing instrumentation.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phora_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheLookups counts cache lookups by region and outcome. Backend
	// outages surface here as misses; they are invisible to callers.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phora_cache_lookups_total",
		Help: "Total cache lookups by region and outcome (hit, miss, error)",
	}, []string{"region", "outcome"})

	// BackfillsTotal counts compatibility backfills of legacy metadata
	// into primary columns, by entity and attribute.
	BackfillsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phora_backfills_total",
		Help: "Total legacy metadata backfills by entity and attribute",
	}, []string{"entity", "attribute"})

	// VotesTotal counts cast votes by target kind and result.
	VotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phora_votes_total",
		Help: "Total vote casts by target kind and result (new, changed, duplicate, forbidden, failed)",
	}, []string{"target", "result"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "phora_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// LiveChatConnections is the gauge of active /live websocket connections.
	LiveChatConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "phora_livechat_connections",
		Help: "Number of active live chat WebSocket connections",
	})
)
