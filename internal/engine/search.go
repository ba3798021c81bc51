package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/index"
)

// SearchOptions are the per-query knobs. Zero fields fall back to the
// engine's configured defaults.
type SearchOptions struct {
	TopK          int
	BM25TopK      int
	EmbeddingTopK int
	FinalRerankK  int
}

func (e *Engine) applyDefaults(opts SearchOptions) SearchOptions {
	if opts.TopK <= 0 {
		opts.TopK = e.cfg.DefaultTopK
	}
	if opts.BM25TopK <= 0 {
		opts.BM25TopK = e.cfg.BM25TopK
	}
	if opts.EmbeddingTopK <= 0 {
		opts.EmbeddingTopK = e.cfg.EmbeddingTopK
	}
	if opts.FinalRerankK <= 0 {
		opts.FinalRerankK = e.cfg.FinalRerankK
	}
	return opts
}

// Search runs the full query pipeline: both channels, score fusion and the
// optional reranking stage. Per-document degradations (a failed query
// embedding, a failed rerank call) reduce result quality instead of failing
// the query, so Search never returns an error.
func (e *Engine) Search(ctx context.Context, query string, opts SearchOptions) []domain.RetrievalResult {
	opts = e.applyDefaults(opts)

	results := e.searchFused(ctx, query, opts, e.weights)

	if e.reranker != nil && len(results) > 1 {
		results = e.rerank(ctx, query, results, opts.FinalRerankK)
	}
	return results
}

// searchFused runs both channels and fuses them with the given weights,
// without reranking. The weight optimizer calls this directly to evaluate
// candidate weights.
func (e *Engine) searchFused(
	ctx context.Context, query string, opts SearchOptions, weights domain.FusionWeights,
) []domain.RetrievalResult {
	if len(e.docs) == 0 {
		return nil
	}

	sparseHits := e.sparse.Search(index.Tokenize(query), opts.BM25TopK)

	var denseHits []index.Hit
	if res, err := e.queryEmbedder.Embed(ctx, query); err != nil {
		e.logger.Warn("Query embedding failed, falling back to sparse channel only", zap.Error(err))
	} else {
		denseHits = e.dense.Search(res.Embedding, opts.EmbeddingTopK)
	}

	fused := fuse(sparseHits, denseHits, weights, opts.TopK)

	results := make([]domain.RetrievalResult, len(fused))
	for i, f := range fused {
		doc := &e.docs[f.pos]
		results[i] = domain.RetrievalResult{
			SourceID:       doc.ID(),
			Content:        doc.Content(),
			Metadata:       doc.Metadata(),
			Score:          f.combined,
			BM25Score:      f.bm25,
			EmbeddingScore: f.embedding,
		}
	}
	return results
}
