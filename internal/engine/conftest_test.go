package engine

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

var errTest = errors.New("provider unavailable")

// stubEmbedder returns canned vectors by exact text, a fallback vector for
// everything else, or a fixed error.
type stubEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
	err      error
	calls    int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	s.calls++
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	if v, ok := s.vectors[text]; ok {
		return domain.EmbeddingResult{Embedding: v}, nil
	}
	return domain.EmbeddingResult{Embedding: s.fallback}, nil
}

// stubReranker returns canned scores or a fixed error.
type stubReranker struct {
	scores []float64
	err    error
	pairs  []domain.RerankPair
}

func (s *stubReranker) Score(_ context.Context, pairs []domain.RerankPair) ([]float64, error) {
	s.pairs = pairs
	if s.err != nil {
		return nil, s.err
	}
	return s.scores, nil
}

func newTestEngine(t *testing.T, emb domain.Embedder, rr domain.Reranker) *Engine {
	t.Helper()
	e, err := New(Config{Dimensions: 3}, emb, rr, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func record(id, content string) domain.Record {
	return domain.Record{ID: id, Content: content}
}
