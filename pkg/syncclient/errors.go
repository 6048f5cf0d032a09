package syncclient

import (
	"errors"
	"fmt"
)

// Kind classifies a sync failure.
type Kind string

const (
	KindSyncFailed          Kind = "sync_failed"
	KindBucketCountMismatch Kind = "bucket_count_mismatch"
)

// Error is returned by Pull/Push/Reconcile on failure.
type Error struct {
	Kind       Kind
	Collection string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindBucketCountMismatch:
		return fmt.Sprintf("syncclient: collection %q: bucket count mismatch: %v", e.Collection, e.Err)
	default:
		return fmt.Sprintf("syncclient: collection %q: sync failed (status %d): %v", e.Collection, e.StatusCode, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// ErrBucketCountMismatch is wrapped by any Error whose Kind is
// KindBucketCountMismatch; test with errors.Is.
var ErrBucketCountMismatch = errors.New("syncclient: bucket count mismatch between peers")

func syncFailedError(collection string, statusCode int, err error) *Error {
	return &Error{Kind: KindSyncFailed, Collection: collection, StatusCode: statusCode, Err: err}
}

func bucketCountMismatchError(collection string, localCount, remoteCount uint32) *Error {
	return &Error{
		Kind:       KindBucketCountMismatch,
		Collection: collection,
		Err:        fmt.Errorf("%w: local=%d remote=%d", ErrBucketCountMismatch, localCount, remoteCount),
	}
}
