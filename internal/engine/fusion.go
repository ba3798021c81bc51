package engine

import (
	"sort"

	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/index"
)

// fusedHit is one candidate after score fusion, keyed by corpus position.
type fusedHit struct {
	pos       int
	combined  float64
	bm25      float64 // normalized sparse score, 0 when absent from the channel
	embedding float64 // normalized dense score, 0 when absent from the channel
}

// fuse normalizes each channel's scores to [0,1] by its own maximum, takes
// the union of candidate positions, combines the normalized scores linearly
// with the given weights and returns the top topK candidates by combined
// score. A channel whose maximum is 0 contributes 0 everywhere.
//
// Fusion cost is bounded by the two per-channel candidate list sizes, not by
// the corpus: a document ranked just outside both channel top-ks is missed,
// an accepted precision/performance tradeoff.
func fuse(sparse, dense []index.Hit, weights domain.FusionWeights, topK int) []fusedHit {
	merged := make(map[int]*fusedHit, len(sparse)+len(dense))

	maxSparse := maxScore(sparse)
	for _, h := range sparse {
		norm := 0.0
		if maxSparse > 0 {
			norm = h.Score / maxSparse
		}
		merged[h.Pos] = &fusedHit{pos: h.Pos, bm25: norm}
	}

	maxDense := maxScore(dense)
	for _, h := range dense {
		norm := 0.0
		if maxDense > 0 {
			norm = h.Score / maxDense
		}
		if existing, ok := merged[h.Pos]; ok {
			existing.embedding = norm
		} else {
			merged[h.Pos] = &fusedHit{pos: h.Pos, embedding: norm}
		}
	}

	fused := make([]fusedHit, 0, len(merged))
	for _, f := range merged {
		f.combined = weights.BM25*f.bm25 + weights.Embedding*f.embedding
		fused = append(fused, *f)
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].combined == fused[j].combined {
			return fused[i].pos < fused[j].pos
		}
		return fused[i].combined > fused[j].combined
	})

	if topK > 0 && len(fused) > topK {
		fused = fused[:topK]
	}
	return fused
}

func maxScore(hits []index.Hit) float64 {
	var m float64
	for _, h := range hits {
		if h.Score > m {
			m = h.Score
		}
	}
	return m
}
