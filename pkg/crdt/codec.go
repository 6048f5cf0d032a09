package crdt

import (
	"fmt"

	"github.com/cuemby/strata/pkg/hash"
	"github.com/cuemby/strata/pkg/hlc"
)

// Wrap annotates every field of a plain document with a fresh clock tick
// and returns the resulting CRDT document, with its content hash computed.
func Wrap(clock *hlc.Clock, plain map[string]any) (Document, error) {
	fields := make(map[string]Field, len(plain))
	for k, v := range plain {
		fields[k] = Field{Value: v, HLC: clock.Tick()}
	}
	doc := Document{Fields: fields}
	if err := RecomputeHash(&doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Unwrap extracts the plain document a CRDT document wraps: each field's
// value, with any nested {value, hlc}-shaped nodes stripped recursively.
func Unwrap(doc Document) map[string]any {
	out := make(map[string]any, len(doc.Fields))
	for k, f := range doc.Fields {
		out[k] = UnwrapValue(f.Value)
	}
	return out
}

// UnwrapValue recursively strips {"value": ..., "hlc": ...}-shaped nodes
// from an arbitrary decoded JSON tree, descending into plain objects and
// arrays otherwise. Ordinary field values (the common case) pass through
// unchanged; this only matters for values that themselves embed a CRDT
// envelope, which Strata's own writers never produce but which the spec
// requires Unwrap to handle defensively.
func UnwrapValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		if value, hasValue := val["value"]; hasValue {
			if _, hasHLC := val["hlc"]; hasHLC {
				return UnwrapValue(value)
			}
		}
		out := make(map[string]any, len(val))
		for k, vv := range val {
			out[k] = UnwrapValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, vv := range val {
			out[i] = UnwrapValue(vv)
		}
		return out
	default:
		return v
	}
}

// Update replaces only the fields named in partial with freshly ticked
// values; every other field of prior is carried over unchanged. The
// returned document's hash always reflects the new field set.
func Update(clock *hlc.Clock, prior Document, partial map[string]any) (Document, error) {
	fields := make(map[string]Field, len(prior.Fields)+len(partial))
	for k, v := range prior.Fields {
		fields[k] = v
	}
	for k, v := range partial {
		fields[k] = Field{Value: v, HLC: clock.Tick()}
	}

	doc := Document{Fields: fields, Extra: prior.Extra}
	if err := RecomputeHash(&doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// MergeField returns the field with the greater HLC. Ties (identical HLCs)
// are not expected in practice since nonces are random; when they occur,
// the defensive tie-break keeps a. Tests must not depend on this
// direction.
func MergeField(a, b Field) Field {
	if b.HLC.After(a.HLC) {
		return b
	}
	return a
}

// MergeDocument merges b into a: every field present in only one document
// survives unchanged, and every field present in both is resolved by
// MergeField. Every HLC encountered on b's side is observed by clock so the
// process's own causal ordering accounts for it. The result's Extra carries
// a's unknown top-level keys forward.
func MergeDocument(clock *hlc.Clock, a, b Document) (Document, error) {
	merged := make(map[string]Field, len(a.Fields)+len(b.Fields))
	for k, v := range a.Fields {
		merged[k] = v
	}

	for k, bf := range b.Fields {
		clock.Observe(bf.HLC)
		if af, ok := merged[k]; ok {
			merged[k] = MergeField(af, bf)
		} else {
			merged[k] = bf
		}
	}

	doc := Document{Fields: merged, Extra: a.Extra}
	if err := RecomputeHash(&doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// RecomputeHash recomputes doc.Hash from doc.Fields's canonical
// serialization and stores it in place.
func RecomputeHash(doc *Document) error {
	plain := make(map[string]any, len(doc.Fields))
	for k, f := range doc.Fields {
		plain[k] = map[string]any{"value": f.Value, "hlc": f.HLC.String()}
	}
	h, err := hash.Hash(plain)
	if err != nil {
		return fmt.Errorf("crdt: computing document hash: %w", err)
	}
	doc.Hash = h
	return nil
}
