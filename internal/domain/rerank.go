package domain

import "context"

// RerankPair is one (query, candidate text) pair submitted for cross-encoder
// scoring.
type RerankPair struct {
	Query    string
	Document string
}

// Reranker scores query/document pairs with a pairwise relevance model and
// returns one score per pair, in input order. Callers treat any error as
// "skip the reranking stage", never as a query failure.
type Reranker interface {
	Score(ctx context.Context, pairs []RerankPair) ([]float64, error)
}
