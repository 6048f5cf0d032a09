package metrics

import (
	"testing"
	"time"

	"github.com/cuemby/strata/pkg/blob"
	"github.com/cuemby/strata/pkg/bucket"
	"github.com/cuemby/strata/pkg/hlc"
	"github.com/cuemby/strata/pkg/store"
	"github.com/cuemby/strata/pkg/validate"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_golang/prometheus/client_model/go"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type passthroughValidator struct{}

func (passthroughValidator) Validate(v map[string]any) (map[string]any, []validate.FieldError) {
	return v, nil
}

func newTestEngine(t *testing.T) *store.Engine {
	t.Helper()
	adapter := blob.NewMemoryAdapter()
	clock := hlc.New(hlc.WithNowFunc(func() time.Time { return time.Unix(0, 0) }))
	idx := bucket.New()
	e, err := store.New("notes", adapter, clock, idx, passthroughValidator{})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	return e
}

func TestCollectorDrainsEventsIntoStoreOperationsTotal(t *testing.T) {
	e := newTestEngine(t)
	c := NewCollector(map[string]*store.Engine{"notes": e})

	before := testutil.ToFloat64(StoreOperationsTotal.WithLabelValues("notes", "insert", "success"))

	if _, err := e.Insert("doc-1", map[string]any{"title": "a"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	c.collect()

	after := testutil.ToFloat64(StoreOperationsTotal.WithLabelValues("notes", "insert", "success"))
	if after != before+1 {
		t.Fatalf("StoreOperationsTotal = %v, want %v", after, before+1)
	}
}

func TestCollectorUpdatesBucketIndexSize(t *testing.T) {
	e := newTestEngine(t)
	c := NewCollector(map[string]*store.Engine{"notes": e})

	if _, err := e.Insert("doc-1", map[string]any{"title": "a"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	c.collect()

	docs, _ := e.IndexStats()
	if docs != 1 {
		t.Fatalf("IndexStats docs = %d, want 1", docs)
	}
}

func TestCollectorObservesStoreOperationDuration(t *testing.T) {
	e := newTestEngine(t)
	c := NewCollector(map[string]*store.Engine{"notes": e})

	if _, err := e.Insert("doc-1", map[string]any{"title": "a"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	c.collect()

	m := &dto.Metric{}
	histogram, ok := StoreOperationDuration.WithLabelValues("notes", "insert").(prometheus.Histogram)
	if !ok {
		t.Fatal("StoreOperationDuration observer is not a prometheus.Histogram")
	}
	if err := histogram.Write(m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if m.Histogram.GetSampleCount() == 0 {
		t.Fatal("expected StoreOperationDuration to have observed at least one sample")
	}
}

func TestCollectorDrainsCacheEventsIntoHitMissCounters(t *testing.T) {
	e := newTestEngine(t)
	c := NewCollector(map[string]*store.Engine{"notes": e})

	if _, err := e.Insert("doc-1", map[string]any{"title": "a"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	missBefore := testutil.ToFloat64(CacheMissesTotal.WithLabelValues("notes"))
	if _, err := e.All(nil); err != nil {
		t.Fatalf("All: %v", err)
	}
	c.collect()
	missAfter := testutil.ToFloat64(CacheMissesTotal.WithLabelValues("notes"))
	if missAfter != missBefore+1 {
		t.Fatalf("CacheMissesTotal = %v, want %v", missAfter, missBefore+1)
	}

	hitBefore := testutil.ToFloat64(CacheHitsTotal.WithLabelValues("notes"))
	if _, err := e.All(nil); err != nil {
		t.Fatalf("All: %v", err)
	}
	c.collect()
	hitAfter := testutil.ToFloat64(CacheHitsTotal.WithLabelValues("notes"))
	if hitAfter != hitBefore+1 {
		t.Fatalf("CacheHitsTotal = %v, want %v", hitAfter, hitBefore+1)
	}
}

func TestCollectorRefreshesCollectionHealth(t *testing.T) {
	resetHealthChecker(defaultStaleAfter)

	e := newTestEngine(t)
	c := NewCollector(map[string]*store.Engine{"notes": e})

	c.collect()

	comp, ok := healthChecker.components["notes"]
	if !ok {
		t.Fatal("expected collect() to register a \"notes\" health component")
	}
	if !comp.TrackStaleness {
		t.Error("collection health component should track staleness")
	}
}
