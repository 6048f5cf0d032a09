package syncserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/cuemby/strata/pkg/bucket"
	"github.com/cuemby/strata/pkg/crdt"
	"github.com/cuemby/strata/pkg/log"
	"github.com/cuemby/strata/pkg/metrics"
	"github.com/cuemby/strata/pkg/store"
	"github.com/go-chi/chi/v5"
)

// Server exposes the sync wire protocol (spec §6.4) over HTTP for a set of
// store.Engine collections, keyed by collection name.
type Server struct {
	router  chi.Router
	engines map[string]*store.Engine
}

// New constructs a Server over the given collections.
func New(engines map[string]*store.Engine) *Server {
	s := &Server{engines: engines, router: chi.NewRouter()}
	s.router.Get("/{collection}/hashes", s.handleHashes)
	s.router.Get("/{collection}", s.handleGetDocs)
	s.router.Post("/{collection}", s.handlePostDocs)
	s.router.Handle("/metrics", metrics.Handler())
	s.router.Get("/health", metrics.HealthHandler())
	s.router.Get("/ready", metrics.ReadyHandler())
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) engine(w http.ResponseWriter, r *http.Request) (*store.Engine, bool) {
	name := chi.URLParam(r, "collection")
	e, ok := s.engines[name]
	if !ok {
		http.Error(w, "unknown collection: "+name, http.StatusNotFound)
		return nil, false
	}
	return e, true
}

// handleHashes serves GET /{collection}/hashes.
func (s *Server) handleHashes(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engine(w, r)
	if !ok {
		return
	}

	hashes := e.GetHashes()
	buckets := make(map[string]string, len(hashes.Buckets))
	for b, h := range hashes.Buckets {
		buckets[strconv.FormatUint(uint64(b), 10)] = h
	}

	writeJSON(w, http.StatusOK, hashesResponse{Root: hashes.Root, Buckets: buckets, Count: bucket.Count})
}

// handleGetDocs serves GET /{collection}?buckets=i1,i2,...
func (s *Server) handleGetDocs(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engine(w, r)
	if !ok {
		return
	}

	indexes, err := parseBucketsParam(r.URL.Query().Get("buckets"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	docs, err := e.GetBuckets(indexes)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, docs)
}

// handlePostDocs serves POST /{collection}.
func (s *Server) handlePostDocs(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engine(w, r)
	if !ok {
		return
	}

	var docs map[string]crdt.Document
	if err := json.NewDecoder(r.Body).Decode(&docs); err != nil {
		http.Error(w, "decoding request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	for id, mergeErr := range e.MergeData(docs) {
		if mergeErr != nil {
			log.WithCollection(e.Collection()).Warn().Err(mergeErr).Str("doc_id", id).Msg("push: merge failed for document")
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseBucketsParam(csv string) ([]uint32, error) {
	if csv == "" {
		return nil, nil
	}
	parts := strings.Split(csv, ",")
	indexes := make([]uint32, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return nil, err
		}
		indexes = append(indexes, uint32(n))
	}
	return indexes, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type hashesResponse struct {
	Root    string            `json:"root"`
	Buckets map[string]string `json:"buckets"`
	Count   uint32            `json:"count,omitempty"`
}
