// Package engine implements the hybrid retrieval engine: an append-only
// document store with two derived indices (BM25 and dense cosine), weighted
// score fusion, optional cross-encoder reranking, an offline fusion-weight
// optimizer and snapshot persistence.
//
// The engine is single-writer, multiple-reader and performs no locking of
// its own: callers must serialize Add, Clear, Load, SetWeights and
// OptimizeWeights against everything else, while Search calls may run
// concurrently with each other.
package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/index"
)

// Config holds the engine tuning knobs.
type Config struct {
	// Dimensions is the embedding vector length, fixed by the provider.
	Dimensions int
	// DefaultTopK bounds the final fused result list.
	DefaultTopK int
	// BM25TopK and EmbeddingTopK bound the per-channel candidate lists
	// before fusion.
	BM25TopK      int
	EmbeddingTopK int
	// FinalRerankK bounds the reranking stage.
	FinalRerankK int
}

// ApplyDefaults fills zero fields with stock values.
func (c *Config) ApplyDefaults() {
	if c.Dimensions <= 0 {
		c.Dimensions = 1536
	}
	if c.DefaultTopK <= 0 {
		c.DefaultTopK = 10
	}
	if c.BM25TopK <= 0 {
		c.BM25TopK = 50
	}
	if c.EmbeddingTopK <= 0 {
		c.EmbeddingTopK = 50
	}
	if c.FinalRerankK <= 0 {
		c.FinalRerankK = 10
	}
}

// Engine owns the document store and both derived indices.
type Engine struct {
	cfg           Config
	embedder      domain.Embedder
	queryEmbedder domain.Embedder
	reranker      domain.Reranker // nil disables the reranking stage
	logger        *zap.Logger

	docs    []domain.IndexedDocument
	sparse  *index.Sparse
	dense   *index.Dense
	weights domain.FusionWeights
	nextID  int
}

// New creates an engine. The reranker may be nil, which disables the
// reranking stage.
func New(cfg Config, embedder domain.Embedder, reranker domain.Reranker, logger *zap.Logger) (*Engine, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()

	e := &Engine{
		cfg:           cfg,
		embedder:      embedder,
		queryEmbedder: embedder,
		reranker:      reranker,
		logger:        logger,
		weights:       domain.DefaultFusionWeights(),
	}
	e.rebuild()
	return e, nil
}

// WithQueryEmbedder installs a separate embedder for queries. Providers with
// asymmetric instruction prefixes embed documents and queries differently;
// by default both sides use the same embedder.
func (e *Engine) WithQueryEmbedder(embedder domain.Embedder) *Engine {
	if embedder != nil {
		e.queryEmbedder = embedder
	}
	return e
}

// Add ingests a batch of records: records with empty content are skipped,
// the rest are tokenized, embedded and appended to the store. Both indices
// are rebuilt afterwards, which is O(corpus size) per batch — the engine
// does not support incremental single-document updates.
//
// Embedding failures are absorbed per document as all-zero vectors and
// never fail the batch.
func (e *Engine) Add(ctx context.Context, records []domain.Record) int {
	added := 0
	for _, rec := range records {
		if rec.Content == "" {
			continue
		}

		id := rec.ID
		if id == "" {
			id = fmt.Sprintf("doc_%d", e.nextID)
			e.nextID++
		}

		doc := domain.NewIndexedDocument(
			id,
			rec.Content,
			index.Tokenize(rec.Content),
			e.embedOrZero(ctx, rec.Content),
			rec.Metadata,
		)
		e.docs = append(e.docs, doc)
		added++
	}

	e.rebuild()
	return added
}

// Clear discards all documents and both derived indices.
func (e *Engine) Clear() {
	e.docs = nil
	e.nextID = 0
	e.rebuild()
}

// Len returns the number of stored documents.
func (e *Engine) Len() int { return len(e.docs) }

// Weights returns the current fusion weights.
func (e *Engine) Weights() domain.FusionWeights { return e.weights }

// SetWeights installs new fusion weights.
func (e *Engine) SetWeights(w domain.FusionWeights) error {
	if err := w.Validate(); err != nil {
		return err
	}
	e.weights = w
	return nil
}

// Stats describes the current index state.
type Stats struct {
	Documents  int
	VocabSize  int
	Dimensions int
	Weights    domain.FusionWeights
}

// Stats returns a point-in-time view of the index state.
func (e *Engine) Stats() Stats {
	return Stats{
		Documents:  len(e.docs),
		VocabSize:  e.sparse.VocabSize(),
		Dimensions: e.cfg.Dimensions,
		Weights:    e.weights,
	}
}

// rebuild derives both indices from the stored documents. Embeddings are
// taken as stored at add time and never recomputed here, so a transient
// provider failure during a later batch cannot clobber earlier vectors.
func (e *Engine) rebuild() {
	corpus := make([][]string, len(e.docs))
	vectors := make([][]float32, len(e.docs))
	for i := range e.docs {
		corpus[i] = e.docs[i].Tokens()
		vectors[i] = e.docs[i].Embedding()
	}
	e.sparse = index.NewSparse(corpus)
	e.dense = index.NewDense(vectors)
}

// embedOrZero calls the embedding provider and converts any failure into a
// zero vector of the configured dimensionality. A zero vector scores 0
// against every query, which keeps the document out of the dense channel
// while its sparse channel stays intact.
func (e *Engine) embedOrZero(ctx context.Context, text string) []float32 {
	res, err := e.embedder.Embed(ctx, text)
	if err != nil {
		e.logger.Warn("Embedding failed, using zero vector",
			zap.Int("dimensions", e.cfg.Dimensions),
			zap.Error(err),
		)
		return make([]float32, e.cfg.Dimensions)
	}
	if len(res.Embedding) == 0 {
		e.logger.Warn("Embedding provider returned empty vector, using zero vector",
			zap.Int("dimensions", e.cfg.Dimensions),
		)
		return make([]float32, e.cfg.Dimensions)
	}
	return res.Embedding
}
