package engine

import (
	"context"
	"testing"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

func rerankFixture(t *testing.T, rr domain.Reranker) *Engine {
	t.Helper()
	emb := &stubEmbedder{
		vectors: map[string][]float32{
			"revenue grew sharply": {1, 0, 0},
			"revenue was flat":     {0.8, 0.2, 0},
			"revenue declined":     {0.6, 0.4, 0},
			"revenue":              {1, 0, 0},
		},
	}
	e := newTestEngine(t, emb, rr)
	e.Add(context.Background(), []domain.Record{
		record("up", "revenue grew sharply"),
		record("flat", "revenue was flat"),
		record("down", "revenue declined"),
	})
	return e
}

func TestRerank_OverridesFusedOrder(t *testing.T) {
	// The cross-encoder prefers the last fused candidate.
	rr := &stubReranker{scores: []float64{0.1, 0.2, 0.9}}
	e := rerankFixture(t, rr)

	results := e.Search(context.Background(), "revenue", SearchOptions{})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Score != 0.9 {
		t.Fatalf("top score = %f, want 0.9", results[0].Score)
	}
	for _, r := range results {
		if r.RerankScore == nil {
			t.Errorf("result %s missing rerank score", r.SourceID)
		} else if *r.RerankScore != r.Score {
			t.Errorf("result %s: score %f != rerank score %f", r.SourceID, r.Score, *r.RerankScore)
		}
	}

	// Pairs carry the query and candidate content in fused order.
	if len(rr.pairs) != 3 {
		t.Fatalf("expected 3 pairs, got %d", len(rr.pairs))
	}
	if rr.pairs[0].Query != "revenue" || rr.pairs[0].Document == "" {
		t.Errorf("unexpected pair %+v", rr.pairs[0])
	}
}

func TestRerank_FailureKeepsFusedOrder(t *testing.T) {
	rr := &stubReranker{err: errTest}
	e := rerankFixture(t, rr)

	withFailed := e.Search(context.Background(), "revenue", SearchOptions{})

	e2 := rerankFixture(t, nil)
	without := e2.Search(context.Background(), "revenue", SearchOptions{})

	if len(withFailed) != len(without) {
		t.Fatalf("result counts differ: %d vs %d", len(withFailed), len(without))
	}
	for i := range withFailed {
		if withFailed[i].SourceID != without[i].SourceID || withFailed[i].Score != without[i].Score {
			t.Errorf("position %d differs after failed rerank: %+v vs %+v",
				i, withFailed[i], without[i])
		}
		if withFailed[i].RerankScore != nil {
			t.Errorf("rerank score set after failed rerank")
		}
	}
}

func TestRerank_WrongScoreCountKeepsFusedOrder(t *testing.T) {
	rr := &stubReranker{scores: []float64{0.5}}
	e := rerankFixture(t, rr)

	results := e.Search(context.Background(), "revenue", SearchOptions{})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if r.RerankScore != nil {
			t.Errorf("rerank score set despite mismatched reply")
		}
	}
}

func TestRerank_SkippedForSingleCandidate(t *testing.T) {
	rr := &stubReranker{scores: []float64{0.9}}
	emb := &stubEmbedder{fallback: []float32{1, 0, 0}}
	e := newTestEngine(t, emb, rr)
	e.Add(context.Background(), []domain.Record{record("only", "revenue grew")})

	results := e.Search(context.Background(), "revenue", SearchOptions{})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].RerankScore != nil {
		t.Errorf("rerank ran for a single candidate")
	}
	if rr.pairs != nil {
		t.Errorf("reranker was called for a single candidate")
	}
}

func TestRerank_TruncatesToFinalK(t *testing.T) {
	rr := &stubReranker{scores: []float64{0.2, 0.8}}
	e := rerankFixture(t, rr)

	results := e.Search(context.Background(), "revenue", SearchOptions{FinalRerankK: 2})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Score != 0.8 {
		t.Fatalf("top score = %f, want 0.8", results[0].Score)
	}
}
