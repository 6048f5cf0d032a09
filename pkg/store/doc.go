/*
Package store implements the Strata store engine: per-collection CRUD over
a blob.Adapter, with schema validation, a query cache, synchronous mutation
listeners, and the bucket index used for sync.

An Engine owns one collection. Documents are stored one blob per document
at "<collection>/<id>.json", wrapped as crdt.Document. Mutating operations (Insert,
Update, UpdateMany, MergeData) serialize on a single mutex per Engine, per
spec: the engine assumes no two of its own mutating operations run
concurrently against the same collection. Reads (Get, All on a cache hit)
may proceed concurrently with in-flight mutations modulo the bucket
index's own lock.

Listeners registered with AddListener fire synchronously, in registration
order, after persistence succeeds and before the mutating call returns.
A listener panicking is recovered and logged; it does not prevent other
listeners from firing. Engine additionally exposes Events(), a buffered
channel in the spirit of the broker pattern used elsewhere in this
codebase, for callers that want non-blocking observation (metrics)
without being a registered listener.
*/
package store
