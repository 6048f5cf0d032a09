package syncclient

import "github.com/cuemby/strata/pkg/crdt"

// hashesResponse is the wire shape of GET /{collection}/hashes (spec §6.4).
// Count is an additive field the reference server sends alongside root and
// buckets so the client can detect a bucket-count mismatch before diffing;
// it is not read by peers that don't care about it.
type hashesResponse struct {
	Root    string            `json:"root"`
	Buckets map[string]string `json:"buckets"`
	Count   uint32            `json:"count,omitempty"`
}

// docsPayload is the wire shape of both the GET /{collection}?buckets=...
// response and the POST /{collection} request body: doc id -> CRDT document.
type docsPayload map[string]crdt.Document
