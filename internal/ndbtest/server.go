// Package ndbtest runs an in-memory NDB server for tests.
//
// The server decodes every request with the same wire codecs the client uses,
// keeps ingested sources in memory and counts calls per endpoint. Any endpoint
// can be overridden with a canned status and body.
package ndbtest

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ThirdAILabs/ndb-client/internal/domain/checkpoint"
	"github.com/ThirdAILabs/ndb-client/internal/domain/document"
	"github.com/ThirdAILabs/ndb-client/internal/domain/feedback"
	"github.com/ThirdAILabs/ndb-client/internal/domain/search/request"
	"github.com/ThirdAILabs/ndb-client/internal/domain/search/result"
	"github.com/ThirdAILabs/ndb-client/internal/domain/source"
	logpkg "github.com/ThirdAILabs/ndb-client/internal/logger"
	"github.com/ThirdAILabs/ndb-client/internal/wire"
)

const maxUploadBytes = 32 << 20

// Upload is what the server received on one insert call.
type Upload struct {
	Filename            string
	Content             []byte
	Metadata            document.Metadata
	MetadataContentType string
	Parts               []string // part names in arrival order
}

type override struct {
	status int
	body   string
}

type storedSource struct {
	rec     source.Source
	content string
	meta    document.Metadata
}

// Server is a fake NDB server listening on a local port.
type Server struct {
	URL string

	srv    *httptest.Server
	logger *zap.Logger

	mu         sync.Mutex
	calls      map[string]int
	overrides  map[string]override
	sources    []storedSource
	searches   []request.Params
	uploads    []Upload
	deleted    []string
	upvotes    []feedback.QueryIDPair
	version    int
	dirty      bool
	chunkIDSeq uint64
}

// New creates a fake server without a listener; mount Router on any http.Server.
// A nil logger disables request logs.
func New(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		logger:    logger,
		calls:     make(map[string]int),
		overrides: make(map[string]override),
	}
}

// NewServer starts a fake server on a local port.
func NewServer(logger *zap.Logger) *Server {
	s := New(logger)
	s.srv = httptest.NewServer(s.Router())
	s.URL = s.srv.URL
	return s
}

// Close shuts the listener down. It is a no-op for servers created with New.
func (s *Server) Close() {
	if s.srv != nil {
		s.srv.Close()
	}
}

// Router returns the chi router serving /api/v1. Extra middlewares run
// after panic recovery and before call counting.
func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Use(middlewares...)
	r.Use(s.countCalls)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Post("/insert", s.handleInsert)
		r.Post("/delete", s.handleDelete)
		r.Post("/upvote", s.handleUpvote)
		r.Get("/sources", s.handleSources)
		r.Post("/checkpoint", s.handleCheckpoint)
	})
	return r
}

// Respond makes endpoint (e.g. "/search") answer with status and body until Reset.
func (s *Server) Respond(endpoint string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[endpoint] = override{status: status, body: body}
}

// Reset drops overrides and call counters; stored sources are kept.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides = make(map[string]override)
	s.calls = make(map[string]int)
}

// Calls returns how many requests reached endpoint.
func (s *Server) Calls(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[endpoint]
}

// TotalCalls returns the number of requests across all endpoints.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// Searches returns the decoded search requests in arrival order.
func (s *Server) Searches() []request.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]request.Params(nil), s.searches...)
}

// Uploads returns the received inserts in arrival order.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

// Deleted returns every source id passed to /delete.
func (s *Server) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

// Upvotes returns every feedback pair received.
func (s *Server) Upvotes() []feedback.QueryIDPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]feedback.QueryIDPair(nil), s.upvotes...)
}

func (s *Server) countCalls(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := strings.TrimPrefix(r.URL.Path, "/api/v1")

		s.mu.Lock()
		s.calls[endpoint]++
		ov, overridden := s.overrides[endpoint]
		s.mu.Unlock()

		logpkg.FromContext(r.Context(), s.logger).Debug("fake ndb request",
			zap.String("method", r.Method),
			zap.String("endpoint", endpoint),
			zap.Bool("overridden", overridden),
		)
		if overridden {
			_, _ = io.Copy(io.Discard, r.Body)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(ov.status)
			_, _ = io.WriteString(w, ov.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err)
		return
	}
	params, err := wire.DecodeSearchParams(body)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err)
		return
	}

	s.mu.Lock()
	s.searches = append(s.searches, params)
	refs := make([]result.Reference, 0, params.TopK())
	for i, st := range s.sources {
		if len(refs) == params.TopK() {
			break
		}
		if !strings.Contains(strings.ToLower(st.content), strings.ToLower(params.Query())) {
			continue
		}
		s.chunkIDSeq++
		ref, err := result.NewReference(s.chunkIDSeq, st.content, st.rec.Name(), st.rec.SourceID(),
			st.meta.DocMetadata(), 1/float64(i+1))
		if err != nil {
			s.mu.Unlock()
			writeDetail(w, http.StatusInternalServerError, err)
			return
		}
		refs = append(refs, ref)
	}
	s.mu.Unlock()

	resp, err := result.NewResponse(params.Query(), refs)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err)
		return
	}
	writeEncoded(w, func() ([]byte, error) { return wire.EncodeSearchResponse(resp) })
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err)
		return
	}
	var (
		up          Upload
		rawMetadata []byte
		gotFile     bool
	)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			writeDetail(w, http.StatusBadRequest, err)
			return
		}
		data, err := io.ReadAll(io.LimitReader(part, maxUploadBytes))
		if err != nil {
			writeDetail(w, http.StatusBadRequest, err)
			return
		}
		up.Parts = append(up.Parts, part.FormName())
		switch part.FormName() {
		case "file":
			up.Filename = part.FileName()
			up.Content = data
			gotFile = true
		case "metadata":
			up.MetadataContentType = part.Header.Get("Content-Type")
			rawMetadata = data
		}
	}
	if !gotFile || rawMetadata == nil {
		writeDetail(w, http.StatusUnprocessableEntity, errors.New("file and metadata parts are required"))
		return
	}
	meta, err := wire.DecodeDocumentMetadata(rawMetadata)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err)
		return
	}
	up.Metadata = meta

	sourceID, ok := meta.SourceID()
	if !ok {
		sourceID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, up)
	version := uint32(1)
	for i, st := range s.sources {
		if st.rec.SourceID() == sourceID {
			version = st.rec.Version() + 1
			s.sources = append(s.sources[:i], s.sources[i+1:]...)
			break
		}
	}
	rec, err := source.New(up.Filename, sourceID, version)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err)
		return
	}
	s.sources = append(s.sources, storedSource{rec: rec, content: string(up.Content), meta: meta})
	s.dirty = true
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "source_id": sourceID, "version": version})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err)
		return
	}
	params, err := wire.DecodeDeleteParams(body)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ids := params.SourceIDs()
	s.deleted = append(s.deleted, ids...)
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := s.sources[:0]
	for _, st := range s.sources {
		if _, ok := drop[st.rec.SourceID()]; !ok {
			kept = append(kept, st)
		}
	}
	if len(kept) != len(s.sources) {
		s.dirty = true
	}
	s.sources = kept
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleUpvote(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err)
		return
	}
	params, err := wire.DecodeUpvoteParams(body)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.upvotes = append(s.upvotes, params.Pairs()...)
	if params.Len() > 0 {
		s.dirty = true
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleSources(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := make([]source.Source, len(s.sources))
	for i, st := range s.sources {
		out[i] = st.rec
	}
	s.mu.Unlock()
	writeEncoded(w, func() ([]byte, error) { return wire.EncodeSources(out) })
}

func (s *Server) handleCheckpoint(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	created := s.dirty
	if created {
		s.version++
		s.dirty = false
	}
	res, err := checkpoint.New(s.version, created)
	s.mu.Unlock()
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err)
		return
	}
	writeEncoded(w, func() ([]byte, error) { return wire.EncodeCheckpoint(res) })
}

func writeEncoded(w http.ResponseWriter, encode func() ([]byte, error)) {
	data, err := encode()
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail mirrors the {"detail": ...} error body of the real server.
func writeDetail(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"detail": fmt.Sprint(err)})
}
