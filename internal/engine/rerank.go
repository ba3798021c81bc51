package engine

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

// rerank scores the fused top finalK candidates with the pairwise relevance
// model, overwrites each result's Score with the model's score and re-sorts.
// Any reranker failure skips the stage: the pre-rerank fused ordering is
// returned unchanged and the failure is logged, never surfaced.
func (e *Engine) rerank(
	ctx context.Context, query string, results []domain.RetrievalResult, finalK int,
) []domain.RetrievalResult {
	candidates := results
	if len(candidates) > finalK {
		candidates = candidates[:finalK]
	}

	pairs := make([]domain.RerankPair, len(candidates))
	for i, r := range candidates {
		pairs[i] = domain.RerankPair{Query: query, Document: r.Content}
	}

	scores, err := e.reranker.Score(ctx, pairs)
	if err != nil {
		e.logger.Warn("Reranking failed, keeping fused order",
			zap.Int("candidates", len(candidates)),
			zap.Error(err),
		)
		return results
	}
	if len(scores) != len(pairs) {
		e.logger.Warn("Reranker returned wrong score count, keeping fused order",
			zap.Int("want", len(pairs)),
			zap.Int("got", len(scores)),
		)
		return results
	}

	reranked := make([]domain.RetrievalResult, len(candidates))
	for i, r := range candidates {
		score := scores[i]
		r.Score = score
		r.RerankScore = &score
		reranked[i] = r
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].Score > reranked[j].Score
	})
	return reranked
}
