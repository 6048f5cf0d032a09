package metrics

import (
	"time"

	"github.com/cuemby/strata/pkg/store"
)

// Collector polls a set of store engines and drains their event taps to
// keep the Prometheus collectors in metrics.go up to date, without the
// store package importing metrics itself (pkg/store.Engine.Events and
// CacheEvents are passive, non-blocking observation channels for exactly
// this purpose). Each poll also refreshes that collection's health
// heartbeat via RegisterCollectionHealth, so a collection whose Collector
// has stopped ticking (not just one that errored) is what readiness
// actually watches for.
type Collector struct {
	engines   map[string]*store.Engine
	taps      map[string]<-chan store.Event
	cacheTaps map[string]<-chan store.CacheEvent
	stopCh    chan struct{}
}

// NewCollector constructs a Collector over the given collection-name ->
// Engine map.
func NewCollector(engines map[string]*store.Engine) *Collector {
	taps := make(map[string]<-chan store.Event, len(engines))
	cacheTaps := make(map[string]<-chan store.CacheEvent, len(engines))
	for name, e := range engines {
		taps[name] = e.Events()
		cacheTaps[name] = e.CacheEvents()
	}
	return &Collector{
		engines:   engines,
		taps:      taps,
		cacheTaps: cacheTaps,
		stopCh:    make(chan struct{}),
	}
}

// Start begins polling in the background at the given interval.
func (c *Collector) Start(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	for name, e := range c.engines {
		docs, buckets := e.IndexStats()
		BucketIndexSize.WithLabelValues(name, "documents").Set(float64(docs))
		BucketIndexSize.WithLabelValues(name, "non_empty_buckets").Set(float64(buckets))
		RegisterCollectionHealth(name, docs, buckets)

		c.drainTap(name)
		c.drainCacheTap(name)
	}
}

// drainTap consumes every event currently buffered on a collection's tap
// without blocking, incrementing StoreOperationsTotal and observing
// StoreOperationDuration per event. Events only reach the tap after a
// mutation has already persisted successfully, so every drained event
// counts as outcome=success.
func (c *Collector) drainTap(name string) {
	tap := c.taps[name]
	for {
		select {
		case ev := <-tap:
			StoreOperationsTotal.WithLabelValues(name, string(ev.Kind), "success").Inc()
			StoreOperationDuration.WithLabelValues(name, string(ev.Kind)).Observe(ev.Duration.Seconds())
		default:
			return
		}
	}
}

// drainCacheTap consumes every cache hit/miss notification currently
// buffered on a collection's cache tap without blocking.
func (c *Collector) drainCacheTap(name string) {
	tap := c.cacheTaps[name]
	for {
		select {
		case ev := <-tap:
			switch ev.Outcome {
			case store.CacheHit:
				CacheHitsTotal.WithLabelValues(name).Inc()
			case store.CacheMiss:
				CacheMissesTotal.WithLabelValues(name).Inc()
			}
		default:
			return
		}
	}
}
