package crdt

import (
	"encoding/json"
	"fmt"

	"github.com/cuemby/strata/pkg/hlc"
)

// Field is a single CRDT field: a value and the HLC timestamp of the write
// that most recently set it.
type Field struct {
	Value any
	HLC   hlc.Timestamp
}

type fieldWire struct {
	Value any    `json:"value"`
	HLC   string `json:"hlc"`
}

// MarshalJSON renders the field as {"value": ..., "hlc": "<canonical>"}.
func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(fieldWire{Value: f.Value, HLC: f.HLC.String()})
}

// UnmarshalJSON parses the {"value": ..., "hlc": "..."} wire shape.
func (f *Field) UnmarshalJSON(data []byte) error {
	var w fieldWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("crdt: decoding field: %w", err)
	}
	ts, err := hlc.Parse(w.HLC)
	if err != nil {
		return fmt.Errorf("crdt: decoding field hlc: %w", err)
	}
	f.Value = w.Value
	f.HLC = ts
	return nil
}

// Document is a CRDT document: a content hash over its fields, the fields
// themselves, and any unrecognized top-level keys carried forward verbatim.
type Document struct {
	Hash   string
	Fields map[string]Field
	Extra  map[string]json.RawMessage
}

// Clone returns a deep-enough copy of d: a new Fields map (so mutating the
// clone's fields never mutates d's), sharing the same Extra entries (they
// are treated as immutable raw bytes).
func (d Document) Clone() Document {
	fields := make(map[string]Field, len(d.Fields))
	for k, v := range d.Fields {
		fields[k] = v
	}
	return Document{Hash: d.Hash, Fields: fields, Extra: d.Extra}
}

// MarshalJSON renders the document per spec.md §6.3: "hash", "fields", and
// any Extra top-level keys, all as siblings in one JSON object.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.Extra)+2)
	for k, v := range d.Extra {
		out[k] = v
	}

	hashBytes, err := json.Marshal(d.Hash)
	if err != nil {
		return nil, fmt.Errorf("crdt: encoding document hash: %w", err)
	}
	out["hash"] = hashBytes

	fieldsBytes, err := json.Marshal(d.Fields)
	if err != nil {
		return nil, fmt.Errorf("crdt: encoding document fields: %w", err)
	}
	out["fields"] = fieldsBytes

	return json.Marshal(out)
}

// UnmarshalJSON parses a document, recovering "hash" and "fields" and
// preserving every other top-level key in Extra.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("crdt: decoding document: %w", err)
	}

	if hashRaw, ok := raw["hash"]; ok {
		if err := json.Unmarshal(hashRaw, &d.Hash); err != nil {
			return fmt.Errorf("crdt: decoding document hash: %w", err)
		}
		delete(raw, "hash")
	}

	fields := make(map[string]Field)
	if fieldsRaw, ok := raw["fields"]; ok {
		if err := json.Unmarshal(fieldsRaw, &fields); err != nil {
			return fmt.Errorf("crdt: decoding document fields: %w", err)
		}
		delete(raw, "fields")
	}
	d.Fields = fields

	if len(raw) > 0 {
		d.Extra = raw
	} else {
		d.Extra = nil
	}
	return nil
}
