/*
Package syncclient implements the sync protocol client side: Pull fetches a
remote peer's bucket hashes, diffs them against the local store, and merges
only the buckets that differ; Push mirrors that in the opposite direction;
Reconcile runs both. The wire protocol is plain JSON over HTTP (spec §6.4),
mirrored against a store.Engine per collection.
*/
package syncclient
