package syncserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cuemby/strata/pkg/blob"
	"github.com/cuemby/strata/pkg/bucket"
	"github.com/cuemby/strata/pkg/hlc"
	"github.com/cuemby/strata/pkg/store"
	"github.com/cuemby/strata/pkg/validate"
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

func TestHandleHashesReturnsRootAndBuckets(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.Insert("doc-1", map[string]any{"title": "a"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	srv := httptest.NewServer(New(map[string]*store.Engine{"notes": e}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/notes/hashes")
	if err != nil {
		t.Fatalf("GET /notes/hashes: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var out hashesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Root == "" {
		t.Fatal("expected non-empty root hash")
	}
	if out.Count != bucket.Count {
		t.Fatalf("count = %d, want %d", out.Count, bucket.Count)
	}
	if len(out.Buckets) != 1 {
		t.Fatalf("buckets = %v, want exactly one non-empty bucket", out.Buckets)
	}
}

func TestHandleUnknownCollectionReturnsNotFound(t *testing.T) {
	e := newTestEngine(t)
	srv := httptest.NewServer(New(map[string]*store.Engine{"notes": e}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/widgets/hashes")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHandlePostDocsMergesIntoStore(t *testing.T) {
	e := newTestEngine(t)
	srv := httptest.NewServer(New(map[string]*store.Engine{"notes": e}))
	defer srv.Close()

	remote := newTestEngine(t)
	if _, err := remote.Insert("doc-2", map[string]any{"title": "from remote"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	changed := remote.GetHashes()
	var indexes []uint32
	for b := range changed.Buckets {
		indexes = append(indexes, b)
	}
	docs, err := remote.GetBuckets(indexes)
	if err != nil {
		t.Fatalf("GetBuckets: %v", err)
	}

	body, err := json.Marshal(docs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	resp, err := http.Post(srv.URL+"/notes", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}

	got, ok, err := e.Get("doc-2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected doc-2 to be merged into the store")
	}
	if got["title"] != "from remote" {
		t.Fatalf("title = %v, want %q", got["title"], "from remote")
	}
}
