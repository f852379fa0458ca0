package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// once guards registration; the default registry panics on duplicates.
	once sync.Once

	// HTTPRequestsTotal counts finished requests.
	// route is the matched pattern (e.g. /s/:id), never the raw path, so label
	// cardinality stays bounded.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPInflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// ShareIssues counts issuance attempts by outcome:
	// ok, empty_url, invalid_url, domain_not_allowed, store_error, not_confirmed.
	ShareIssues = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "share_issue_total",
			Help: "Share link issuance attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// ShareResolves counts resolutions by outcome:
	// hit, miss, bad_shape, bad_record, store_error.
	ShareResolves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "share_resolve_total",
			Help: "Share link resolutions by outcome.",
		},
		[]string{"outcome"},
	)

	// StoreOperations counts store calls by backend, op and result.
	StoreOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "share_store_operations_total",
			Help: "Share store operations by backend, operation and result.",
		},
		[]string{"backend", "op", "result"},
	)

	StoreOperationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "share_store_operation_duration_seconds",
			Help:    "Share store operation latency.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 3},
		},
		[]string{"backend", "op"},
	)

	// ShareEvents counts share events by kind and fate (collected, dropped, published).
	ShareEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "share_events_total",
			Help: "Share events by kind and fate.",
		},
		[]string{"kind", "fate"},
	)
)

// Init registers every collector once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			HTTPInflightRequests,
			ShareIssues,
			ShareResolves,
			StoreOperations,
			StoreOperationDurationSeconds,
			ShareEvents,
		)
	})
}
