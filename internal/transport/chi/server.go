// Package chi implements the HTTP API over the retrieval engine.
//
// The engine itself is unsynchronized; this layer owns the lock that
// serializes mutations (ingest, clear, optimize, weights, snapshot load)
// against concurrent searches.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/engine"
	logpkg "github.com/kailas-cloud/rankdex/internal/logger"
	"github.com/kailas-cloud/rankdex/internal/metrics"
	"github.com/kailas-cloud/rankdex/internal/version"
)

// Server exposes the retrieval engine over HTTP.
type Server struct {
	mu           sync.RWMutex
	engine       *engine.Engine
	snapshotPath string
	logger       *zap.Logger
}

// NewServer creates an HTTP API server around the engine.
func NewServer(eng *engine.Engine, snapshotPath string, logger *zap.Logger) *Server {
	return &Server{
		engine:       eng,
		snapshotPath: snapshotPath,
		logger:       logger,
	}
}

// Router builds the chi router with middleware and all routes.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.requestLogger)
	r.Use(metrics.Middleware())

	r.Get("/healthz", s.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/documents", s.AddDocuments)
	r.Delete("/documents", s.ClearDocuments)
	r.Post("/search", s.Search)
	r.Get("/weights", s.GetWeights)
	r.Put("/weights", s.SetWeights)
	r.Post("/optimize", s.Optimize)
	r.Post("/snapshot/save", s.SaveSnapshot)
	r.Post("/snapshot/load", s.LoadSnapshot)

	return r
}

type documentPayload struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
	ID       string            `json:"id,omitempty"`
}

type addRequest struct {
	Documents []documentPayload `json:"documents"`
}

type addResponse struct {
	Added int `json:"added"`
	Total int `json:"total"`
}

// AddDocuments handles POST /documents.
func (s *Server) AddDocuments(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, "At least one document is required")
		return
	}

	records := make([]domain.Record, len(req.Documents))
	for i, d := range req.Documents {
		records[i] = domain.Record{Content: d.Content, Metadata: d.Metadata, ID: d.ID}
	}

	s.mu.Lock()
	added := s.engine.Add(r.Context(), records)
	total := s.engine.Len()
	s.mu.Unlock()

	metrics.IndexRebuildsTotal.Inc()
	metrics.DocumentsIndexed.Set(float64(total))

	writeJSON(w, http.StatusCreated, addResponse{Added: added, Total: total})
}

// ClearDocuments handles DELETE /documents.
func (s *Server) ClearDocuments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.engine.Clear()
	s.mu.Unlock()

	metrics.DocumentsIndexed.Set(0)

	w.WriteHeader(http.StatusNoContent)
}

type searchRequest struct {
	Query         string `json:"query"`
	TopK          int    `json:"top_k,omitempty"`
	BM25TopK      int    `json:"bm25_top_k,omitempty"`
	EmbeddingTopK int    `json:"embedding_top_k,omitempty"`
	FinalRerankK  int    `json:"final_rerank_k,omitempty"`
}

type resultPayload struct {
	SourceID       string            `json:"source_id"`
	Content        string            `json:"content"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Score          float64           `json:"score"`
	BM25Score      float64           `json:"bm25_score"`
	EmbeddingScore float64           `json:"embedding_score"`
	RerankScore    *float64          `json:"rerank_score,omitempty"`
}

type searchResponse struct {
	Results []resultPayload `json:"results"`
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}

	start := time.Now()

	s.mu.RLock()
	results := s.engine.Search(r.Context(), req.Query, engine.SearchOptions{
		TopK:          req.TopK,
		BM25TopK:      req.BM25TopK,
		EmbeddingTopK: req.EmbeddingTopK,
		FinalRerankK:  req.FinalRerankK,
	})
	s.mu.RUnlock()

	reranked := "false"
	if len(results) > 0 && results[0].RerankScore != nil {
		reranked = "true"
	}
	metrics.SearchesTotal.WithLabelValues(reranked).Inc()
	metrics.SearchDuration.Observe(time.Since(start).Seconds())

	payload := make([]resultPayload, len(results))
	for i, res := range results {
		payload[i] = resultPayload{
			SourceID:       res.SourceID,
			Content:        res.Content,
			Metadata:       res.Metadata,
			Score:          res.Score,
			BM25Score:      res.BM25Score,
			EmbeddingScore: res.EmbeddingScore,
			RerankScore:    res.RerankScore,
		}
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: payload})
}

type weightsPayload struct {
	BM25Weight      float64 `json:"bm25_weight"`
	EmbeddingWeight float64 `json:"embedding_weight"`
}

// GetWeights handles GET /weights.
func (s *Server) GetWeights(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	weights := s.engine.Weights()
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, weightsPayload{
		BM25Weight:      weights.BM25,
		EmbeddingWeight: weights.Embedding,
	})
}

// SetWeights handles PUT /weights.
func (s *Server) SetWeights(w http.ResponseWriter, r *http.Request) {
	var req weightsPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	s.mu.Lock()
	err := s.engine.SetWeights(domain.FusionWeights{BM25: req.BM25Weight, Embedding: req.EmbeddingWeight})
	s.mu.Unlock()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, req)
}

type optimizeRequest struct {
	Queries []struct {
		Query     string             `json:"query"`
		Relevance map[string]float64 `json:"relevance"`
	} `json:"queries"`
	Min   float64 `json:"min,omitempty"`
	Max   float64 `json:"max,omitempty"`
	Steps int     `json:"steps,omitempty"`
}

// Optimize handles POST /optimize: the offline fusion-weight sweep.
func (s *Server) Optimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	queries := make([]engine.LabeledQuery, len(req.Queries))
	for i, q := range req.Queries {
		queries[i] = engine.LabeledQuery{Query: q.Query, Relevance: q.Relevance}
	}

	s.mu.Lock()
	best, err := s.engine.OptimizeWeights(r.Context(), queries, engine.SweepRange{
		Min: req.Min, Max: req.Max, Steps: req.Steps,
	})
	s.mu.Unlock()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, weightsPayload{
		BM25Weight:      best.BM25,
		EmbeddingWeight: best.Embedding,
	})
}

type snapshotRequest struct {
	Path string `json:"path,omitempty"`
}

type snapshotResponse struct {
	Path      string `json:"path"`
	Documents int    `json:"documents"`
}

// SaveSnapshot handles POST /snapshot/save.
func (s *Server) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	path := s.snapshotPathFrom(r)
	if path == "" {
		writeError(w, http.StatusBadRequest, "Snapshot path is required")
		return
	}

	s.mu.RLock()
	err := s.engine.Save(path)
	docs := s.engine.Len()
	s.mu.RUnlock()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshotResponse{Path: path, Documents: docs})
}

// LoadSnapshot handles POST /snapshot/load.
func (s *Server) LoadSnapshot(w http.ResponseWriter, r *http.Request) {
	path := s.snapshotPathFrom(r)
	if path == "" {
		writeError(w, http.StatusBadRequest, "Snapshot path is required")
		return
	}

	s.mu.Lock()
	err := s.engine.Load(path)
	docs := s.engine.Len()
	s.mu.Unlock()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	metrics.IndexRebuildsTotal.Inc()
	metrics.DocumentsIndexed.Set(float64(docs))

	writeJSON(w, http.StatusOK, snapshotResponse{Path: path, Documents: docs})
}

func (s *Server) snapshotPathFrom(r *http.Request) string {
	var req snapshotRequest
	// An empty body falls back to the configured path.
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Path != "" {
		return req.Path
	}
	return s.snapshotPath
}

type healthResponse struct {
	Status     string         `json:"status"`
	Version    string         `json:"version"`
	Documents  int            `json:"documents"`
	VocabSize  int            `json:"vocab_size"`
	Dimensions int            `json:"dimensions"`
	Weights    weightsPayload `json:"weights"`
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	st := s.engine.Stats()
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, healthResponse{
		Status:     "ok",
		Version:    version.Version,
		Documents:  st.Documents,
		VocabSize:  st.VocabSize,
		Dimensions: st.Dimensions,
		Weights:    weightsPayload{BM25Weight: st.Weights.BM25, EmbeddingWeight: st.Weights.Embedding},
	})
}

// requestLogger attaches a request-scoped logger carrying the chi request ID
// to the context.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := s.logger.With(zap.String("request_id", chimw.GetReqID(r.Context())))
		next.ServeHTTP(w, r.WithContext(logpkg.ContextWithLogger(r.Context(), l)))
	})
}

// handleDomainError maps domain errors to HTTP status codes.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidWeights),
		errors.Is(err, domain.ErrNoLabeledQueries),
		errors.Is(err, domain.ErrBadSnapshot):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logpkg.FromContext(r.Context()).Error("Request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
