package bucket

import (
	"sort"
	"sync"

	"github.com/cuemby/strata/pkg/hash"
)

// Count is the fixed number of buckets a collection's id space is
// partitioned into. It is never computed or configured per collection;
// changing it is a breaking change to the sync protocol (spec.md §6.4:
// "Bucket count must be identical between peers").
const Count uint32 = 256

// Of returns the bucket index a document id is assigned to. It is a pure
// function: the same id always maps to the same bucket, on any process,
// forever, for this fixed Count.
func Of(id string) uint32 {
	return hash.ToBucket(id, Count)
}

// Hashes is a snapshot of a collection's current root and per-bucket
// hashes, as returned by Index.Hashes and sent over the wire (spec.md
// §6.4).
type Hashes struct {
	Root    string
	Buckets map[uint32]string
}

// Index maintains the in-memory bucket hash map and root hash for one
// collection. It is safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	docs    map[uint32]map[string]string // bucket -> doc id -> content hash
	buckets map[uint32]string            // bucket -> bucket hash, present only if non-empty
	root    string
}

// New constructs an empty Index.
func New() *Index {
	idx := &Index{
		docs:    make(map[uint32]map[string]string),
		buckets: make(map[uint32]string),
	}
	idx.recomputeRootLocked()
	return idx
}

// Put records (or updates) the content hash of document id and recomputes
// that document's bucket hash and the root hash.
func (idx *Index) Put(id, contentHash string) {
	b := Of(id)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.docs[b] == nil {
		idx.docs[b] = make(map[string]string)
	}
	idx.docs[b][id] = contentHash
	idx.recomputeBucketLocked(b)
	idx.recomputeRootLocked()
}

// Remove drops document id from the index and recomputes its bucket hash
// and the root hash. Removing an id not currently indexed is a no-op.
func (idx *Index) Remove(id string) {
	b := Of(id)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if docs, ok := idx.docs[b]; ok {
		delete(docs, id)
		if len(docs) == 0 {
			delete(idx.docs, b)
		}
	}
	idx.recomputeBucketLocked(b)
	idx.recomputeRootLocked()
}

// RebuildFrom replaces the entire index with the given id->content-hash
// map, as used on cold start after scanning a collection's documents.
func (idx *Index) RebuildFrom(entries map[string]string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.docs = make(map[uint32]map[string]string)
	for id, h := range entries {
		b := Of(id)
		if idx.docs[b] == nil {
			idx.docs[b] = make(map[string]string)
		}
		idx.docs[b][id] = h
	}

	idx.buckets = make(map[uint32]string)
	for b := range idx.docs {
		idx.recomputeBucketLocked(b)
	}
	idx.recomputeRootLocked()
}

// Hashes returns a snapshot of the current root and bucket hashes.
func (idx *Index) Hashes() Hashes {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	buckets := make(map[uint32]string, len(idx.buckets))
	for b, h := range idx.buckets {
		buckets[b] = h
	}
	return Hashes{Root: idx.root, Buckets: buckets}
}

// DocIDsInBuckets returns every indexed document id currently assigned to
// one of the given buckets.
func (idx *Index) DocIDsInBuckets(buckets []uint32) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var ids []string
	for _, b := range buckets {
		for id := range idx.docs[b] {
			ids = append(ids, id)
		}
	}
	return ids
}

// DocCount returns the number of documents currently indexed.
func (idx *Index) DocCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := 0
	for _, docs := range idx.docs {
		n += len(docs)
	}
	return n
}

// NonEmptyBucketCount returns the number of buckets with at least one
// document currently assigned to them.
func (idx *Index) NonEmptyBucketCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.buckets)
}

// recomputeBucketLocked recomputes bucket b's hash from the current set of
// document hashes assigned to it. Caller must hold idx.mu.
func (idx *Index) recomputeBucketLocked(b uint32) {
	docs := idx.docs[b]
	if len(docs) == 0 {
		delete(idx.buckets, b)
		return
	}

	hashes := make([]string, 0, len(docs))
	for _, h := range docs {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes) // order-independent: sort before hashing

	bucketHash, err := hash.Hash(hashes)
	if err != nil {
		// hashes is a []string of plain strings; CanonicalBytes cannot
		// fail on that shape.
		panic(err)
	}
	idx.buckets[b] = bucketHash
}

// recomputeRootLocked recomputes the root hash from the current bucket
// hash map. Caller must hold idx.mu.
func (idx *Index) recomputeRootLocked() {
	indexes := make([]uint32, 0, len(idx.buckets))
	for b := range idx.buckets {
		indexes = append(indexes, b)
	}
	sort.Slice(indexes, func(i, j int) bool { return indexes[i] < indexes[j] })

	ordered := make([]string, len(indexes))
	for i, b := range indexes {
		ordered[i] = idx.buckets[b]
	}

	root, err := hash.Hash(ordered)
	if err != nil {
		panic(err)
	}
	idx.root = root
}
