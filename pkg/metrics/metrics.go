package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HLC clock metrics
	ClockTicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "strata_clock_ticks_total",
			Help: "Total number of local HLC ticks issued",
		},
	)

	ClockObservationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strata_clock_observations_total",
			Help: "Total number of remote HLC timestamps observed, by whether they advanced the clock",
		},
		[]string{"advanced"},
	)

	// Store engine metrics
	StoreOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strata_store_operations_total",
			Help: "Total number of store operations by collection, operation and outcome",
		},
		[]string{"collection", "op", "outcome"},
	)

	StoreOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strata_store_operation_duration_seconds",
			Help:    "Store operation duration in seconds by collection and operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collection", "op"},
	)

	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strata_cache_hits_total",
			Help: "Total number of All() query cache hits by collection",
		},
		[]string{"collection"},
	)

	CacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strata_cache_misses_total",
			Help: "Total number of All() query cache misses by collection",
		},
		[]string{"collection"},
	)

	// Sync metrics
	SyncCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strata_sync_cycles_total",
			Help: "Total number of sync cycles by collection, direction and outcome",
		},
		[]string{"collection", "direction", "outcome"},
	)

	SyncBucketsChanged = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strata_sync_buckets_changed",
			Help:    "Number of buckets found to differ during a sync cycle, by collection and direction",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64, 128, 256},
		},
		[]string{"collection", "direction"},
	)

	// Bucket index metrics
	BucketIndexSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "strata_bucket_index_size",
			Help: "Bucket index size by collection and dimension (documents, non_empty_buckets)",
		},
		[]string{"collection", "dimension"},
	)
)

func init() {
	prometheus.MustRegister(
		ClockTicksTotal,
		ClockObservationsTotal,
		StoreOperationsTotal,
		StoreOperationDuration,
		CacheHitsTotal,
		CacheMissesTotal,
		SyncCyclesTotal,
		SyncBucketsChanged,
		BucketIndexSize,
	)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
