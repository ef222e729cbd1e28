// Package metrics exposes the Prometheus collectors of the rewards service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Aggregation outcomes
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid_transaction"
	OutcomeError   = "source_error"
)

var Aggregations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rewards",
	Name:      "aggregations_total",
	Help:      "Reward aggregations by operation and outcome.",
}, []string{"operation", "outcome"})

var PointsAwarded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "rewards",
	Name:      "points_awarded_total",
	Help:      "Sum of total points returned by reward queries.",
})

var InvalidTransactions = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "rewards",
	Name:      "invalid_transactions_total",
	Help:      "Aggregations aborted by a negative purchase amount.",
})

var IngestedRecords = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rewards",
	Name:      "ingested_records_total",
	Help:      "Purchase records accepted for storage, by ingestion path.",
}, []string{"source"})

var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "rewards",
	Name:      "http_request_duration_seconds",
	Help:      "HTTP request latency by route pattern and status.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route", "status"})

// ObserveHTTP records one request.
func ObserveHTTP(route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

var RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rewards",
	Name:      "rate_limited_requests_total",
	Help:      "Requests rejected by the per-client rate limiter.",
}, []string{"route"})
