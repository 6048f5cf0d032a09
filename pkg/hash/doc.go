/*
Package hash provides the deterministic, non-cryptographic hashing Strata
uses for content addressing and bucket assignment.

# Content hash

Hash computes a DJB2 hash over the canonical serialization of a document's
fields (object keys sorted lexicographically, arrays in literal order, no
insignificant whitespace) and renders it as lowercase hex. Two documents
with field maps that are deeply equal, independent of how they were built
or in what order their keys were inserted, always hash identically.

# Bucket hash

ToBucket maps a document id to a bucket index with a second, independent
hash (FNV-1a) so that bucket assignment does not correlate with content-hash
collisions. It is a pure function of its inputs: the same id and bucket
count always produce the same bucket index, on any process, forever.
*/
package hash
