package domain

// RetrievalResult is a single ranked answer to a query. Values are created
// fresh per query and hold no back-reference into the document store.
type RetrievalResult struct {
	SourceID string
	Content  string
	Metadata map[string]string

	// Score is the final ranking score (after fusion, and after reranking if
	// applied) and is the only field guaranteed to determine result order.
	Score float64

	// BM25Score and EmbeddingScore are the normalized per-channel signals
	// that fed fusion, retained for explainability.
	BM25Score      float64
	EmbeddingScore float64

	// RerankScore is set only when the reranking stage ran.
	RerankScore *float64
}
