// Package telemetry holds the engine's prometheus collectors.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreFetches counts batched store calls by step kind. One query issues
	// at most one increment per plan step, which makes this the metric to
	// watch for traversal fan-out regressions.
	StoreFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kestrel",
		Subsystem: "executor",
		Name:      "store_fetches_total",
		Help:      "Batched store calls issued, by step kind.",
	}, []string{"kind"})

	// QueryDuration observes end-to-end engine execution latency.
	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kestrel",
		Subsystem: "engine",
		Name:      "query_duration_seconds",
		Help:      "End-to-end query execution time, by outcome.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
	}, []string{"outcome"})

	// ValidationFailures counts requests rejected before any store access.
	ValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kestrel",
		Subsystem: "engine",
		Name:      "validation_failures_total",
		Help:      "Requests rejected at validation, by reason.",
	}, []string{"reason"})
)
