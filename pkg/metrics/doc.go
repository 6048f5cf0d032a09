/*
Package metrics provides Prometheus metrics collection and exposition for
Strata.

Metrics are package-level Prometheus collectors (metrics.go), registered
once in init. Components update them directly (HLC tick/observe counts,
sync cycle outcomes) or are polled by a Collector, which drains a
store.Engine's Events() tap and periodically samples its bucket index size
without the store package importing metrics.

# Metric catalog

strata_clock_ticks_total: counter, total local HLC ticks issued.

strata_clock_observations_total{advanced}: counter, remote HLC timestamps
observed, partitioned by whether they advanced the local clock.

strata_store_operations_total{collection,op,outcome}: counter, store
mutations by collection, operation (insert/update/merge) and outcome.

strata_store_operation_duration_seconds{collection,op}: histogram.

strata_cache_hits_total{collection} / strata_cache_misses_total{collection}:
counters for the store's All() query cache.

strata_sync_cycles_total{collection,direction,outcome}: counter, sync
client pull/push cycles by outcome (ok, sync_failed, bucket_count_mismatch).

strata_sync_buckets_changed{collection,direction}: histogram of how many
buckets a sync cycle found to differ.

strata_bucket_index_size{collection,dimension}: gauge, "documents" and
"non_empty_buckets" dimensions of a collection's bucket index.

# Health and readiness

HealthChecker tracks named component health (RegisterComponent,
UpdateComponent) independently of the Prometheus collectors above.
HealthHandler/ReadyHandler/LivenessHandler expose /health, /ready and
/live JSON endpoints; readiness additionally requires the "blob" component
to be registered and healthy, and every other registered component to be
healthy and, if it tracks staleness, recently refreshed.

# Usage

	metrics.SetVersion("0.1.0")
	metrics.RegisterComponent("store", true, "")
	metrics.RegisterComponent("blob", true, "")

	collector := metrics.NewCollector(map[string]*store.Engine{"notes": notesEngine})
	collector.Start(15 * time.Second)
	defer collector.Stop()

	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", metrics.HealthHandler())
	mux.HandleFunc("/ready", metrics.ReadyHandler())
*/
package metrics
