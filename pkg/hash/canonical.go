package hash

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// CanonicalBytes renders v as a canonical JSON-shaped byte string: object
// keys sorted lexicographically, arrays kept in literal order, and no
// insignificant whitespace. v must be built from the types encoding/json
// produces when decoding into interface{} (map[string]interface{},
// []interface{}, string, float64/json.Number, bool, nil) or from ordinary
// Go maps/slices/scalars that JSON-marshal cleanly; anything else is
// normalized by round-tripping through encoding/json first.
func CanonicalBytes(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case map[string]any:
		return writeCanonicalObject(buf, val)
	case []any:
		return writeCanonicalArray(buf, val)
	case nil, bool, string, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Errorf("hash: canonicalizing scalar of type %T: %w", val, err)
		}
		buf.Write(b)
		return nil
	default:
		return writeCanonicalFallback(buf, v)
	}
}

func writeCanonicalObject(buf *bytes.Buffer, m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return fmt.Errorf("hash: canonicalizing object key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		if err := writeCanonical(buf, m[k]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeCanonicalArray(buf *bytes.Buffer, arr []any) error {
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeCanonical(buf, elem); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

// writeCanonicalFallback handles Go values that are not already
// map[string]any/[]any/plain scalars: typed maps and slices are converted
// via reflection, and anything else is normalized by marshaling to JSON and
// decoding back into the interface{} shape above (using json.Number so
// integer fields are not corrupted by a float64 round-trip).
func writeCanonicalFallback(buf *bytes.Buffer, v any) error {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := fmt.Sprintf("%v", iter.Key().Interface())
			m[k] = iter.Value().Interface()
		}
		return writeCanonicalObject(buf, m)
	case reflect.Slice, reflect.Array:
		arr := make([]any, rv.Len())
		for i := range arr {
			arr[i] = rv.Index(i).Interface()
		}
		return writeCanonicalArray(buf, arr)
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			buf.WriteString("null")
			return nil
		}
		return writeCanonical(buf, rv.Elem().Interface())
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("hash: cannot canonicalize value of type %T: %w", v, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return fmt.Errorf("hash: normalizing value of type %T: %w", v, err)
	}
	return writeCanonical(buf, generic)
}
