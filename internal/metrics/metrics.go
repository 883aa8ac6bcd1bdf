// Package metrics provides Prometheus metrics for bookscan.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequestsTotal counts catalog requests by upstream and HTTP status.
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookscan",
			Name:      "upstream_requests_total",
			Help:      "Total number of catalog requests",
		},
		[]string{"upstream", "status"},
	)

	// UpstreamDuration measures catalog request duration.
	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bookscan",
			Name:      "upstream_duration_seconds",
			Help:      "Duration of catalog requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"upstream"},
	)

	// IdentifyTotal counts identify outcomes by intent and result.
	IdentifyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookscan",
			Name:      "identify_total",
			Help:      "Total number of identify operations",
		},
		[]string{"intent", "result"},
	)

	// CacheLookupsTotal counts response cache lookups.
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookscan",
			Name:      "cache_lookups_total",
			Help:      "Total number of response cache lookups",
		},
		[]string{"table", "result"},
	)
)

// RecordUpstream records one catalog request. status is the HTTP status code
// as text, or "error" when no response arrived.
func RecordUpstream(upstream, status string, duration float64) {
	UpstreamRequestsTotal.WithLabelValues(upstream, status).Inc()
	UpstreamDuration.WithLabelValues(upstream).Observe(duration)
}

// RecordIdentify records the outcome of one identification.
func RecordIdentify(intent, result string) {
	IdentifyTotal.WithLabelValues(intent, result).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(table string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookupsTotal.WithLabelValues(table, result).Inc()
}
