package crdt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cuemby/strata/pkg/hlc"
)

func newTestClock(millisOffset int64) *hlc.Clock {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(millisOffset) * time.Millisecond)
	return hlc.New(hlc.WithNowFunc(func() time.Time { return base }))
}

func mustWrap(t *testing.T, clock *hlc.Clock, plain map[string]any) Document {
	t.Helper()
	doc, err := Wrap(clock, plain)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	return doc
}

// TestLWWMerge covers spec.md scenario 2: peer A writes title "a" at T1,
// peer B writes title "b" at T2 > T1; after cross-merge both unwrap to "b".
func TestLWWMerge(t *testing.T) {
	clockA := newTestClock(0)
	clockB := newTestClock(1000) // strictly later wall time

	docA := mustWrap(t, clockA, map[string]any{"title": "a"})
	docB := mustWrap(t, clockB, map[string]any{"title": "b"})

	mergedAB, err := MergeDocument(clockA, docA, docB)
	if err != nil {
		t.Fatalf("MergeDocument(A,B): %v", err)
	}
	mergedBA, err := MergeDocument(clockB, docB, docA)
	if err != nil {
		t.Fatalf("MergeDocument(B,A): %v", err)
	}

	for name, merged := range map[string]Document{"A<-B": mergedAB, "B<-A": mergedBA} {
		got := Unwrap(merged)
		if got["title"] != "b" {
			t.Fatalf("%s: title = %v, want %q", name, got["title"], "b")
		}
	}
}

// TestAdditiveMerge covers spec.md scenario 3: A has {a:1}, B has {b:2};
// after cross-merge both unwrap to {a:1, b:2}.
func TestAdditiveMerge(t *testing.T) {
	clockA := newTestClock(0)
	clockB := newTestClock(0)

	docA := mustWrap(t, clockA, map[string]any{"a": float64(1)})
	docB := mustWrap(t, clockB, map[string]any{"b": float64(2)})

	merged, err := MergeDocument(clockA, docA, docB)
	if err != nil {
		t.Fatalf("MergeDocument: %v", err)
	}

	got := Unwrap(merged)
	if got["a"] != float64(1) || got["b"] != float64(2) {
		t.Fatalf("unwrapped merge = %v, want {a:1, b:2}", got)
	}
}

func TestMergeCommutative(t *testing.T) {
	clock := newTestClock(0)
	a := mustWrap(t, clock, map[string]any{"x": float64(1), "y": "hello"})
	b := mustWrap(t, clock, map[string]any{"y": "world", "z": true})

	ab, err := MergeDocument(hlc.New(hlc.WithNowFunc(func() time.Time { return time.Unix(0, 0) })), a, b)
	if err != nil {
		t.Fatalf("merge(a,b): %v", err)
	}
	ba, err := MergeDocument(hlc.New(hlc.WithNowFunc(func() time.Time { return time.Unix(0, 0) })), b, a)
	if err != nil {
		t.Fatalf("merge(b,a): %v", err)
	}

	if !documentsEqual(ab, ba) {
		t.Fatalf("merge not commutative: merge(a,b)=%v merge(b,a)=%v", Unwrap(ab), Unwrap(ba))
	}
}

func TestMergeAssociative(t *testing.T) {
	clock := func() *hlc.Clock { return hlc.New(hlc.WithNowFunc(func() time.Time { return time.Unix(0, 0) })) }

	base := newTestClock(0)
	a := mustWrap(t, base, map[string]any{"x": float64(1)})
	b := mustWrap(t, base, map[string]any{"y": float64(2)})
	c := mustWrap(t, base, map[string]any{"z": float64(3)})

	ab, err := MergeDocument(clock(), a, b)
	if err != nil {
		t.Fatalf("merge(a,b): %v", err)
	}
	abc1, err := MergeDocument(clock(), ab, c)
	if err != nil {
		t.Fatalf("merge(merge(a,b),c): %v", err)
	}

	bc, err := MergeDocument(clock(), b, c)
	if err != nil {
		t.Fatalf("merge(b,c): %v", err)
	}
	abc2, err := MergeDocument(clock(), a, bc)
	if err != nil {
		t.Fatalf("merge(a,merge(b,c)): %v", err)
	}

	if !documentsEqual(abc1, abc2) {
		t.Fatalf("merge not associative: %v != %v", Unwrap(abc1), Unwrap(abc2))
	}
}

func TestMergeIdempotent(t *testing.T) {
	clock := newTestClock(0)
	a := mustWrap(t, clock, map[string]any{"x": float64(1), "y": "z"})

	merged, err := MergeDocument(hlc.New(hlc.WithNowFunc(func() time.Time { return time.Unix(0, 0) })), a, a)
	if err != nil {
		t.Fatalf("merge(a,a): %v", err)
	}

	if !documentsEqual(a, merged) {
		t.Fatalf("merge not idempotent: a=%v merge(a,a)=%v", Unwrap(a), Unwrap(merged))
	}
}

func TestUpdateOnlyTouchesNamedFields(t *testing.T) {
	clock := newTestClock(0)
	doc := mustWrap(t, clock, map[string]any{"title": "a", "body": "unchanged"})
	originalBodyHLC := doc.Fields["body"].HLC

	updated, err := Update(clock, doc, map[string]any{"title": "b"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.Fields["body"].HLC.Compare(originalBodyHLC) != 0 {
		t.Fatalf("Update touched an untouched field's HLC")
	}
	if Unwrap(updated)["title"] != "b" {
		t.Fatalf("Update did not apply the named field")
	}
	if updated.Hash == doc.Hash {
		t.Fatalf("Update did not recompute the document hash")
	}
}

func TestHashDeterministicAcrossRoundTrip(t *testing.T) {
	clock := newTestClock(0)
	doc := mustWrap(t, clock, map[string]any{"title": "hello", "count": float64(3)})

	encoded, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded Document
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if err := RecomputeHash(&decoded); err != nil {
		t.Fatalf("RecomputeHash: %v", err)
	}
	if decoded.Hash != doc.Hash {
		t.Fatalf("hash not stable across round trip: %q != %q", doc.Hash, decoded.Hash)
	}
}

func TestUnknownTopLevelKeysPreserved(t *testing.T) {
	raw := `{"hash":"deadbeef","fields":{},"schemaVersion":3}`
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := doc.Extra["schemaVersion"]; !ok {
		t.Fatalf("expected unknown top-level key schemaVersion to be preserved")
	}

	out, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var roundTripped map[string]json.RawMessage
	if err := json.Unmarshal(out, &roundTripped); err != nil {
		t.Fatalf("Unmarshal round trip: %v", err)
	}
	if _, ok := roundTripped["schemaVersion"]; !ok {
		t.Fatalf("schemaVersion missing after re-encoding")
	}
}

func documentsEqual(a, b Document) bool {
	pa, pb := Unwrap(a), Unwrap(b)
	if len(pa) != len(pb) {
		return false
	}
	for k, v := range pa {
		if pb[k] != v {
			return false
		}
	}
	return true
}
