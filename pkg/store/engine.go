package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cuemby/strata/pkg/blob"
	"github.com/cuemby/strata/pkg/bucket"
	"github.com/cuemby/strata/pkg/crdt"
	"github.com/cuemby/strata/pkg/hlc"
	"github.com/cuemby/strata/pkg/log"
	"github.com/cuemby/strata/pkg/validate"
)

// Predicate names a filter over unwrapped documents for All(). Key must be
// a stable string identifying the predicate so the query cache can key on
// it; two calls with the same Key are assumed to apply the same filter.
type Predicate struct {
	Key CacheKey
	Fn  func(doc map[string]any) bool
}

// Update is one item of a UpdateMany batch.
type Update struct {
	ID      string
	Partial map[string]any
}

// Engine is the store engine for a single collection.
type Engine struct {
	collection string
	adapter    blob.Adapter
	clock      *hlc.Clock
	index      *bucket.Index
	validator  validate.Validator

	mu     sync.Mutex // serializes mutating operations
	rw     sync.RWMutex
	cache  *queryCache
	broker *broker

	scanConcurrency int
	cacheEnabled    bool
}

// New constructs an Engine over collection, cold-starting its bucket index
// from adapter by scanning existing documents.
func New(collection string, adapter blob.Adapter, clock *hlc.Clock, index *bucket.Index, validator validate.Validator, opts ...Option) (*Engine, error) {
	e := &Engine{
		collection:      collection,
		adapter:         adapter,
		clock:           clock,
		index:           index,
		validator:       validator,
		cache:           newQueryCache(),
		broker:          newBroker(),
		scanConcurrency: defaultScanConcurrency,
		cacheEnabled:    true,
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.coldStart(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) docPath(id string) string {
	return e.collection + "/" + id + ".json"
}

func (e *Engine) idFromEntry(entry string) (string, bool) {
	if !strings.HasSuffix(entry, ".json") {
		return "", false
	}
	return strings.TrimSuffix(entry, ".json"), true
}

// coldStart scans the collection directory and populates the bucket index
// from each document's recorded hash, skipping unreadable or corrupt
// entries with a logged warning rather than failing the whole scan.
func (e *Engine) coldStart() error {
	entries, err := e.adapter.List(e.collection)
	if err != nil {
		return adapterError(e.collection, "", fmt.Errorf("cold start listing: %w", err))
	}

	entryHashes := make(map[string]string)
	for _, entry := range entries {
		id, ok := e.idFromEntry(entry)
		if !ok {
			continue
		}
		doc, err := e.readDocument(id)
		if err != nil {
			kind := "unreadable"
			if se, ok := asStoreError(err); ok {
				kind = string(se.Kind)
			}
			log.WithCollection(e.collection).Warn().Str("doc_id", id).Str("kind", kind).Err(err).Msg("skipping document during cold start")
			continue
		}
		entryHashes[id] = doc.Hash
	}

	e.index.RebuildFrom(entryHashes)
	return nil
}

// readDocument returns the raw blob.Adapter error on I/O failure (callers
// check isAbsent against it), or a *Error{Kind: KindCorrupt} if the stored
// bytes don't decode as a valid crdt.Document.
func (e *Engine) readDocument(id string) (crdt.Document, error) {
	data, err := e.adapter.Read(e.docPath(id))
	if err != nil {
		return crdt.Document{}, err
	}
	var doc crdt.Document
	if err := jsonUnmarshal(data, &doc); err != nil {
		return crdt.Document{}, corruptError(e.collection, id, fmt.Errorf("decoding document: %w", err))
	}
	return doc, nil
}

func (e *Engine) writeDocument(id string, doc crdt.Document) error {
	data, err := jsonMarshal(doc)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	return e.adapter.Write(e.docPath(id), data)
}

// Get returns the unwrapped document stored at id, or ok=false if absent.
func (e *Engine) Get(id string) (doc map[string]any, ok bool, err error) {
	e.rw.RLock()
	defer e.rw.RUnlock()

	d, err := e.readDocument(id)
	if err != nil {
		if isAbsent(err) {
			return nil, false, nil
		}
		if se, ok := asStoreError(err); ok {
			return nil, false, se
		}
		return nil, false, adapterError(e.collection, id, err)
	}
	return crdt.Unwrap(d), true, nil
}

// All returns every document in the collection that matches pred (or
// every document if pred is nil), unwrapped. Results are memoized by
// pred.Key (or NoPredicateKey) until the next successful mutation.
func (e *Engine) All(pred *Predicate) ([]map[string]any, error) {
	key := NoPredicateKey
	if pred != nil {
		key = pred.Key
	}

	e.rw.RLock()
	if e.cacheEnabled {
		if cached, ok := e.cache.get(key); ok {
			e.rw.RUnlock()
			e.broker.notifyCache(e.collection, CacheHit)
			return cached, nil
		}
	}
	e.rw.RUnlock()
	if e.cacheEnabled {
		e.broker.notifyCache(e.collection, CacheMiss)
	}

	docs, err := e.scanAll()
	if err != nil {
		return nil, err
	}

	var filtered []map[string]any
	if pred == nil {
		filtered = docs
	} else {
		filtered = make([]map[string]any, 0, len(docs))
		for _, d := range docs {
			if pred.Fn(d) {
				filtered = append(filtered, d)
			}
		}
	}

	if e.cacheEnabled {
		e.rw.Lock()
		e.cache.put(key, filtered)
		e.rw.Unlock()
	}
	return filtered, nil
}

// scanAll reads every document in the collection with bounded concurrency,
// skipping per-document validation or decode failures with a logged
// warning (per-doc failures are not fatal to the scan).
func (e *Engine) scanAll() ([]map[string]any, error) {
	entries, err := e.adapter.List(e.collection)
	if err != nil {
		return nil, adapterError(e.collection, "", fmt.Errorf("listing collection: %w", err))
	}

	type result struct {
		doc map[string]any
		ok  bool
	}

	sem := make(chan struct{}, e.scanConcurrency)
	results := make([]result, len(entries))
	var wg sync.WaitGroup

	for i, entry := range entries {
		id, ok := e.idFromEntry(entry)
		if !ok {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, id string) {
			defer wg.Done()
			defer func() { <-sem }()

			d, err := e.readDocument(id)
			if err != nil {
				kind := "unreadable"
				if se, ok := asStoreError(err); ok {
					kind = string(se.Kind)
				}
				log.WithCollection(e.collection).Warn().Str("doc_id", id).Str("kind", kind).Err(err).Msg("skipping document during scan")
				return
			}
			plain := crdt.Unwrap(d)
			if _, fieldErrs := e.validator.Validate(plain); len(fieldErrs) > 0 {
				log.WithCollection(e.collection).Warn().Str("doc_id", id).Str("kind", string(KindSchemaInvalid)).Interface("field_errors", fieldErrs).Msg("skipping document during scan")
				return
			}
			results[i] = result{doc: plain, ok: true}
		}(i, id)
	}
	wg.Wait()

	out := make([]map[string]any, 0, len(entries))
	for _, r := range results {
		if r.ok {
			out = append(out, r.doc)
		}
	}
	return out, nil
}

// Insert validates data, wraps it as a new CRDT document, persists it, and
// notifies listeners with (insert, id).
func (e *Engine) Insert(id string, data map[string]any) (map[string]any, error) {
	start := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()

	valid, fieldErrs := e.validator.Validate(data)
	if len(fieldErrs) > 0 {
		return nil, schemaInvalidError(e.collection, id, fieldErrs)
	}

	doc, err := crdt.Wrap(e.clock, valid)
	if err != nil {
		return nil, adapterError(e.collection, id, err)
	}
	if err := e.writeDocument(id, doc); err != nil {
		return nil, adapterError(e.collection, id, fmt.Errorf("persisting: %w", err))
	}

	e.afterMutation(id, doc.Hash, EventInsert, time.Since(start))
	return crdt.Unwrap(doc), nil
}

// Update merges partial into the existing document at id, validates the
// merged result, persists it, and notifies listeners with (update, id).
// Returns a KindNotFound Error if id does not exist.
func (e *Engine) Update(id string, partial map[string]any) (map[string]any, error) {
	start := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()

	prior, err := e.readDocument(id)
	if err != nil {
		if isAbsent(err) {
			return nil, notFoundError(e.collection, id)
		}
		if se, ok := asStoreError(err); ok {
			return nil, se
		}
		return nil, adapterError(e.collection, id, err)
	}

	merged := crdt.Unwrap(prior)
	for k, v := range partial {
		merged[k] = v
	}
	if _, fieldErrs := e.validator.Validate(merged); len(fieldErrs) > 0 {
		return nil, schemaInvalidError(e.collection, id, fieldErrs)
	}

	updated, err := crdt.Update(e.clock, prior, partial)
	if err != nil {
		return nil, adapterError(e.collection, id, err)
	}

	if err := e.writeDocument(id, updated); err != nil {
		return nil, adapterError(e.collection, id, fmt.Errorf("persisting: %w", err))
	}

	e.afterMutation(id, updated.Hash, EventUpdate, time.Since(start))
	return crdt.Unwrap(updated), nil
}

// UpdateMany applies Update to each item, best-effort: one item's failure
// does not stop the others. The returned slice has one error (nil on
// success) per input item, in order.
func (e *Engine) UpdateMany(updates []Update) []error {
	errs := make([]error, len(updates))
	for i, u := range updates {
		_, err := e.Update(u.ID, u.Partial)
		errs[i] = err
	}
	return errs
}

// MergeData merges each remote document against the local document of the
// same id (inserting it if absent locally), updating the index and
// notifying listeners once per id. One id's adapter failure aborts only
// that id; others still apply.
func (e *Engine) MergeData(remote map[string]crdt.Document) map[string]error {
	e.mu.Lock()
	defer e.mu.Unlock()

	errs := make(map[string]error)
	for id, remoteDoc := range remote {
		start := time.Now()
		merged, kind, err := e.mergeOne(id, remoteDoc)
		if err != nil {
			errs[id] = err
			continue
		}
		e.afterMutation(id, merged.Hash, kind, time.Since(start))
	}
	return errs
}

func (e *Engine) mergeOne(id string, remoteDoc crdt.Document) (crdt.Document, EventKind, error) {
	local, err := e.readDocument(id)
	if err != nil {
		if !isAbsent(err) {
			if se, ok := asStoreError(err); ok {
				return crdt.Document{}, "", se
			}
			return crdt.Document{}, "", adapterError(e.collection, id, err)
		}
		if err := e.writeDocument(id, remoteDoc); err != nil {
			return crdt.Document{}, "", adapterError(e.collection, id, fmt.Errorf("persisting: %w", err))
		}
		return remoteDoc, EventInsert, nil
	}

	merged, err := crdt.MergeDocument(e.clock, local, remoteDoc)
	if err != nil {
		return crdt.Document{}, "", adapterError(e.collection, id, err)
	}
	if err := e.writeDocument(id, merged); err != nil {
		return crdt.Document{}, "", adapterError(e.collection, id, fmt.Errorf("persisting: %w", err))
	}
	if merged.Hash != local.Hash {
		winner := log.WithBucket(bucket.Of(id))
		winner.Debug().Str("doc_id", id).Msg("remote merge changed local document")
		for field, f := range merged.Fields {
			if lf, ok := local.Fields[field]; !ok || lf.HLC.Compare(f.HLC) != 0 {
				log.WithTimestamp(f.HLC).Debug().Str("doc_id", id).Str("field", field).Msg("field won by last-writer-wins merge")
			}
		}
	}
	return merged, EventMerge, nil
}

// afterMutation updates the bucket index, invalidates the query cache, and
// fires listeners. Caller must hold e.mu.
func (e *Engine) afterMutation(id, hash string, kind EventKind, duration time.Duration) {
	e.index.Put(id, hash)

	e.rw.Lock()
	e.cache.invalidateAll()
	e.rw.Unlock()

	e.broker.notify(kind, e.collection, id, duration)
}

// GetHashes returns the collection's current root and bucket hashes.
func (e *Engine) GetHashes() bucket.Hashes {
	return e.index.Hashes()
}

// IndexStats returns the current document count and non-empty bucket count
// of the collection's bucket index, for metrics polling.
func (e *Engine) IndexStats() (docs, nonEmptyBuckets int) {
	return e.index.DocCount(), e.index.NonEmptyBucketCount()
}

// Collection returns the name of the collection this Engine serves.
func (e *Engine) Collection() string {
	return e.collection
}

// GetBuckets returns every document whose id falls in one of the given
// bucket indexes, keyed by id.
func (e *Engine) GetBuckets(indexes []uint32) (map[string]crdt.Document, error) {
	e.rw.RLock()
	defer e.rw.RUnlock()

	ids := e.index.DocIDsInBuckets(indexes)
	out := make(map[string]crdt.Document, len(ids))
	for _, id := range ids {
		doc, err := e.readDocument(id)
		if err != nil {
			if isAbsent(err) {
				continue
			}
			if se, ok := asStoreError(err); ok {
				return nil, se
			}
			return nil, adapterError(e.collection, id, err)
		}
		out[id] = doc
	}
	return out, nil
}

// AddListener registers fn under key, replacing any listener previously
// registered under the same key. Listeners fire synchronously, in
// registration order, after a mutation persists.
func (e *Engine) AddListener(key string, fn Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.broker.addListener(key, fn)
}

// RemoveListener unregisters the listener at key, if any.
func (e *Engine) RemoveListener(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.broker.removeListener(key)
}

// Events returns a buffered channel of mutation events, for non-blocking
// observers (e.g. pkg/metrics) that don't want to register as a Listener.
// The channel drops events under backpressure rather than blocking
// mutations.
func (e *Engine) Events() <-chan Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.broker.attachTap()
}

// CacheEvents returns a buffered channel of All() cache hit/miss
// notifications, for the same kind of non-blocking observer as Events.
func (e *Engine) CacheEvents() <-chan CacheEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.broker.attachCacheTap()
}

func logListenerPanic(collection, key string, r any) {
	log.WithCollection(collection).Error().Str("listener", key).Interface("panic", r).Msg("listener panicked")
}
