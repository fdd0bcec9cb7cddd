// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// CacheLookups counts cache-aside lookups by outcome (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_cache_lookups_total",
		Help: "Total number of cache lookups by outcome",
	}, []string{"outcome"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "warbler_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// DomainEvents counts user-facing actions such as posts, likes and follows.
	DomainEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_domain_events_total",
		Help: "Total number of domain events by type",
	}, []string{"event"})

	// AuthorizationDenials counts requests rejected by the authorization gate.
	AuthorizationDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_authorization_denials_total",
		Help: "Total number of requests rejected by the authorization gate",
	}, []string{"reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordEvent increments the domain event counter.
func RecordEvent(event string) {
	DomainEvents.WithLabelValues(event).Inc()
}

// RecordDenial increments the authorization denial counter.
func RecordDenial(reason string) {
	AuthorizationDenials.WithLabelValues(reason).Inc()
}
