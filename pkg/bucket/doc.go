/*
Package bucket maintains the bucket hash index Strata uses to summarize a
collection's contents for sync without transmitting every document.

Every document id is assigned to one of Count buckets by Of, a pure,
stable function of the id alone. Index tracks, for each non-empty bucket,
a hash of the multiset of document content hashes currently assigned to
it (order-independent, so two collections with the same documents in a
bucket always agree on that bucket's hash regardless of insertion order),
and a root hash over the bucket hash map as a whole. Two collections with
equal root hashes are guaranteed to hold identical document sets.

Count is pinned at 256 and must never change silently: a peer advertising
a different count is a sync protocol error (see pkg/syncclient), since
bucket assignment is only comparable between peers that agree on it.
*/
package bucket
