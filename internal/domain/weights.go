package domain

import "fmt"

// FusionWeights are the linear coefficients applied to the normalized sparse
// and dense channel scores. They are not required to sum to 1.
type FusionWeights struct {
	BM25      float64
	Embedding float64
}

// DefaultFusionWeights returns the stock 50/50 configuration.
func DefaultFusionWeights() FusionWeights {
	return FusionWeights{BM25: 0.5, Embedding: 0.5}
}

// Validate rejects negative coefficients.
func (w FusionWeights) Validate() error {
	if w.BM25 < 0 || w.Embedding < 0 {
		return fmt.Errorf("%w: bm25=%v embedding=%v", ErrInvalidWeights, w.BM25, w.Embedding)
	}
	return nil
}
