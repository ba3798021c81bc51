package domain

import "errors"

var (
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrRerankProviderError signals a rerank provider failure.
	ErrRerankProviderError = errors.New("rerank provider error")
	// ErrBadSnapshot signals a malformed or inconsistent snapshot blob.
	ErrBadSnapshot = errors.New("bad snapshot")
	// ErrNoLabeledQueries signals an optimizer run without training data.
	ErrNoLabeledQueries = errors.New("no labeled queries")
	// ErrInvalidWeights signals a negative fusion weight.
	ErrInvalidWeights = errors.New("invalid fusion weights")
)
