package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cuemby/strata/pkg/bucket"
	"github.com/cuemby/strata/pkg/log"
	"github.com/cuemby/strata/pkg/metrics"
	"github.com/cuemby/strata/pkg/store"
)

// Client syncs one or more store.Engine collections against a remote peer
// speaking the protocol in spec §6.4.
type Client struct {
	baseURL string
	http    *http.Client
}

// New constructs a Client against baseURL (e.g. "http://peer:7420").
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithHTTPClient overrides the underlying *http.Client, e.g. for tests
// against an httptest.Server with a custom transport.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// Pull fetches the remote peer's bucket hashes for engine's collection,
// diffs them against the local store, and merges only the documents in
// buckets that differ, per spec §4.7.
func (c *Client) Pull(ctx context.Context, engine *store.Engine) error {
	collection := engine.Collection()

	remote, err := c.fetchHashes(ctx, collection)
	if err != nil {
		recordSyncCycle(collection, "pull", err)
		return err
	}

	local := engine.GetHashes()
	if local.Root == remote.Root {
		recordSyncCycle(collection, "pull", nil)
		metrics.SyncBucketsChanged.WithLabelValues(collection, "pull").Observe(0)
		return nil
	}

	changed := diffBuckets(local, remote)
	metrics.SyncBucketsChanged.WithLabelValues(collection, "pull").Observe(float64(len(changed)))
	if len(changed) == 0 {
		recordSyncCycle(collection, "pull", nil)
		return nil
	}

	remoteDocs, err := c.fetchDocs(ctx, collection, changed)
	if err != nil {
		recordSyncCycle(collection, "pull", err)
		return err
	}

	for id, mergeErr := range engine.MergeData(remoteDocs) {
		if mergeErr != nil {
			log.WithCollection(collection).Warn().Err(mergeErr).Str("doc_id", id).Msg("pull: merge failed for document")
		}
	}
	recordSyncCycle(collection, "pull", nil)
	return nil
}

// Push fetches the remote peer's bucket hashes, computes which local
// buckets differ, and POSTs just those documents, per spec §4.7.
func (c *Client) Push(ctx context.Context, engine *store.Engine) error {
	collection := engine.Collection()

	remote, err := c.fetchHashes(ctx, collection)
	if err != nil {
		recordSyncCycle(collection, "push", err)
		return err
	}

	local := engine.GetHashes()
	if local.Root == remote.Root {
		recordSyncCycle(collection, "push", nil)
		metrics.SyncBucketsChanged.WithLabelValues(collection, "push").Observe(0)
		return nil
	}

	changed := diffBuckets(local, remote)
	metrics.SyncBucketsChanged.WithLabelValues(collection, "push").Observe(float64(len(changed)))
	if len(changed) == 0 {
		recordSyncCycle(collection, "push", nil)
		return nil
	}

	localDocs, err := engine.GetBuckets(changed)
	if err != nil {
		wrapped := syncFailedError(collection, 0, fmt.Errorf("reading local buckets: %w", err))
		recordSyncCycle(collection, "push", wrapped)
		return wrapped
	}

	err = c.postDocs(ctx, collection, localDocs)
	recordSyncCycle(collection, "push", err)
	return err
}

// Reconcile runs Pull then Push. Because merge is CRDT-commutative, the
// order does not affect the converged result.
func (c *Client) Reconcile(ctx context.Context, engine *store.Engine) error {
	if err := c.Pull(ctx, engine); err != nil {
		return err
	}
	return c.Push(ctx, engine)
}

func (c *Client) fetchHashes(ctx context.Context, collection string) (hashesResponse, error) {
	url := fmt.Sprintf("%s/%s/hashes", c.baseURL, collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return hashesResponse{}, syncFailedError(collection, 0, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return hashesResponse{}, syncFailedError(collection, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return hashesResponse{}, syncFailedError(collection, resp.StatusCode, fmt.Errorf("unexpected status from %s", url))
	}

	var out hashesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return hashesResponse{}, syncFailedError(collection, resp.StatusCode, fmt.Errorf("decoding hashes response: %w", err))
	}

	if out.Count != 0 && out.Count != bucket.Count {
		return hashesResponse{}, bucketCountMismatchError(collection, bucket.Count, out.Count)
	}

	return out, nil
}

func (c *Client) fetchDocs(ctx context.Context, collection string, buckets []uint32) (docsPayload, error) {
	csv := bucketsCSV(buckets)
	url := fmt.Sprintf("%s/%s?buckets=%s", c.baseURL, collection, csv)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, syncFailedError(collection, 0, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, syncFailedError(collection, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, syncFailedError(collection, resp.StatusCode, fmt.Errorf("unexpected status from %s", url))
	}

	var out docsPayload
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, syncFailedError(collection, resp.StatusCode, fmt.Errorf("decoding docs response: %w", err))
	}
	return out, nil
}

func (c *Client) postDocs(ctx context.Context, collection string, docs docsPayload) error {
	body, err := json.Marshal(docs)
	if err != nil {
		return syncFailedError(collection, 0, fmt.Errorf("encoding push body: %w", err))
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return syncFailedError(collection, 0, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return syncFailedError(collection, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return syncFailedError(collection, resp.StatusCode, fmt.Errorf("unexpected status from %s", url))
	}
	return nil
}

// diffBuckets returns the sorted set of bucket indexes whose hash differs
// between local and remote, treating a bucket missing on either side as
// differing from a present one (spec §4.7 step 4: "treating missing as
// null").
func diffBuckets(local bucket.Hashes, remote hashesResponse) []uint32 {
	seen := make(map[uint32]struct{})
	for b := range local.Buckets {
		seen[b] = struct{}{}
	}
	for k := range remote.Buckets {
		if idx, err := strconv.ParseUint(k, 10, 32); err == nil {
			seen[uint32(idx)] = struct{}{}
		}
	}

	var changed []uint32
	for b := range seen {
		localHash, localOK := local.Buckets[b]
		remoteHash, remoteOK := remote.Buckets[strconv.FormatUint(uint64(b), 10)]
		if !localOK || !remoteOK || localHash != remoteHash {
			changed = append(changed, b)
		}
	}
	sort.Slice(changed, func(i, j int) bool { return changed[i] < changed[j] })
	return changed
}

// recordSyncCycle increments SyncCyclesTotal with an outcome derived from
// err: "ok" on success, the Error.Kind string on a classified failure, or
// "sync_failed" for anything else.
func recordSyncCycle(collection, direction string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(KindSyncFailed)
		var syncErr *Error
		if errors.As(err, &syncErr) {
			outcome = string(syncErr.Kind)
		}
	}
	metrics.SyncCyclesTotal.WithLabelValues(collection, direction, outcome).Inc()
}

func bucketsCSV(buckets []uint32) string {
	parts := make([]string, len(buckets))
	for i, b := range buckets {
		parts[i] = strconv.FormatUint(uint64(b), 10)
	}
	return strings.Join(parts, ",")
}
