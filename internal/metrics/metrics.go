// Package metrics declares the Prometheus collectors exported by the API.
// Collectors are registered on the default registry at init via promauto and
// scraped through promhttp.Handler at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Admissions counts reservation admission decisions by outcome
	// ("accepted", "capacity_exceeded", "duplicate", "own_trip", "not_found",
	// "invalid", "error").
	Admissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rideshare_admissions_total",
			Help: "Reservation admission decisions by outcome",
		},
		[]string{"outcome"},
	)

	// AdmissionDuration measures time spent inside a trip's critical section,
	// including the wait for the lock.
	AdmissionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rideshare_admission_duration_seconds",
			Help:    "Duration of reservation admission including lock wait",
			Buckets: prometheus.DefBuckets,
		},
	)

	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rideshare_cache_requests_total",
			Help: "Cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rideshare_cache_invalidations_total",
			Help: "Cache tag invalidations by tag",
		},
		[]string{"tag"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rideshare_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route pattern and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
