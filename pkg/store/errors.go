package store

import (
	"errors"
	"fmt"

	"github.com/cuemby/strata/pkg/validate"
)

// Kind classifies a store Error for programmatic handling.
type Kind string

const (
	// KindNotFound indicates an operation targeted a document id that
	// does not exist in the collection.
	KindNotFound Kind = "not_found"
	// KindSchemaInvalid indicates a value was rejected by the collection's
	// validator; the write was aborted atomically.
	KindSchemaInvalid Kind = "schema_invalid"
	// KindAdapterFailed indicates the underlying blob.Adapter returned an
	// unexpected error (anything other than blob.ErrNotFound where absence
	// is an expected outcome).
	KindAdapterFailed Kind = "adapter_failed"
	// KindCorrupt indicates a document's stored bytes did not decode as a
	// valid crdt.Document (truncated write, hand-edited file, bit rot).
	KindCorrupt Kind = "corrupt"
)

// Error is the error type every Engine operation returns on failure.
type Error struct {
	Kind       Kind
	Collection string
	ID         string
	FieldErrs  []validate.FieldError
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindSchemaInvalid:
		return fmt.Sprintf("store: %s/%s: schema invalid: %v", e.Collection, e.ID, e.FieldErrs)
	case KindNotFound:
		return fmt.Sprintf("store: %s/%s: not found", e.Collection, e.ID)
	case KindCorrupt:
		return fmt.Sprintf("store: %s/%s: corrupt: %v", e.Collection, e.ID, e.Err)
	default:
		return fmt.Sprintf("store: %s/%s: %v", e.Collection, e.ID, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// ErrNotFound is the sentinel errors.Is target for a KindNotFound Error.
var ErrNotFound = errors.New("store: document not found")

func notFoundError(collection, id string) *Error {
	return &Error{Kind: KindNotFound, Collection: collection, ID: id, Err: ErrNotFound}
}

func schemaInvalidError(collection, id string, fieldErrs []validate.FieldError) *Error {
	return &Error{Kind: KindSchemaInvalid, Collection: collection, ID: id, FieldErrs: fieldErrs}
}

func adapterError(collection, id string, err error) *Error {
	return &Error{Kind: KindAdapterFailed, Collection: collection, ID: id, Err: err}
}

func corruptError(collection, id string, err error) *Error {
	return &Error{Kind: KindCorrupt, Collection: collection, ID: id, Err: err}
}

// asStoreError reports whether err already carries a *store.Error (e.g. one
// produced by readDocument's decode check), so callers can propagate its
// Kind instead of flattening it into KindAdapterFailed.
func asStoreError(err error) (*Error, bool) {
	var se *Error
	ok := errors.As(err, &se)
	return se, ok
}
