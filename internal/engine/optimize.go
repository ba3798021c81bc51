package engine

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

// LabeledQuery is one training example for the weight optimizer: a query
// plus graded relevance judgments keyed by document id.
type LabeledQuery struct {
	Query     string
	Relevance map[string]float64
}

// SweepRange describes the uniform grid searched by OptimizeWeights:
// Steps candidate BM25 weights evenly spaced over [Min, Max], with the
// embedding weight pinned to 1 minus the BM25 weight.
type SweepRange struct {
	Min   float64
	Max   float64
	Steps int
}

func (r *SweepRange) applyDefaults() {
	if r.Steps <= 0 {
		r.Steps = 11
	}
	if r.Min == 0 && r.Max == 0 {
		r.Max = 1
	}
}

// OptimizeWeights sweeps the fusion weights over the grid, evaluates the
// fused pipeline (without reranking) against every labeled query with a DCG
// score and permanently installs the best pair found. Ties keep the
// first-seen, lowest BM25-weight pair. This is an offline calibration
// operation, not part of the query hot path.
func (e *Engine) OptimizeWeights(
	ctx context.Context, queries []LabeledQuery, rng SweepRange,
) (domain.FusionWeights, error) {
	if len(queries) == 0 {
		return domain.FusionWeights{}, domain.ErrNoLabeledQueries
	}
	rng.applyDefaults()

	opts := e.applyDefaults(SearchOptions{})

	best := e.weights
	bestScore := math.Inf(-1)

	for step := 0; step < rng.Steps; step++ {
		bm25W := rng.Min
		if rng.Steps > 1 {
			bm25W += (rng.Max - rng.Min) * float64(step) / float64(rng.Steps-1)
		}
		candidate := domain.FusionWeights{BM25: bm25W, Embedding: 1 - bm25W}

		var total float64
		for _, q := range queries {
			results := e.searchFused(ctx, q.Query, opts, candidate)
			total += dcg(results, q.Relevance)
		}

		if total > bestScore {
			best = candidate
			bestScore = total
		}
	}

	e.weights = best
	e.logger.Info("Fusion weights optimized",
		zap.Float64("bm25_weight", best.BM25),
		zap.Float64("embedding_weight", best.Embedding),
		zap.Float64("dcg", bestScore),
		zap.Int("queries", len(queries)),
		zap.Int("steps", rng.Steps),
	)
	return best, nil
}

// dcg computes the discounted cumulative gain of a ranked result list:
// sum of relevance[pos] / log2(pos + 2).
func dcg(results []domain.RetrievalResult, relevance map[string]float64) float64 {
	var score float64
	for pos, r := range results {
		rel := relevance[r.SourceID]
		if rel == 0 {
			continue
		}
		score += rel / math.Log2(float64(pos)+2)
	}
	return score
}
