package engine

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	emb := &stubEmbedder{
		vectors: map[string][]float32{
			"revenue grew in the fourth quarter": {0.9, 0.1, 0},
			"the cat sat on the mat":             {0, 1, 0},
			"quarterly revenue growth":           {1, 0, 0},
		},
	}
	original := newTestEngine(t, emb, nil)
	original.Add(context.Background(), []domain.Record{
		{ID: "doc1", Content: "revenue grew in the fourth quarter", Metadata: map[string]string{"source": "report"}},
		{ID: "doc2", Content: "the cat sat on the mat"},
	})
	if err := original.SetWeights(domain.FusionWeights{BM25: 0.3, Embedding: 0.7}); err != nil {
		t.Fatalf("SetWeights: %v", err)
	}

	path := filepath.Join(t.TempDir(), "engine.snapshot")
	if err := original.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	restored := newTestEngine(t, emb, nil)
	if err := restored.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if restored.Len() != original.Len() {
		t.Fatalf("Len = %d, want %d", restored.Len(), original.Len())
	}
	if restored.Weights() != original.Weights() {
		t.Fatalf("weights = %+v, want %+v", restored.Weights(), original.Weights())
	}

	query := "quarterly revenue growth"
	want := original.Search(context.Background(), query, SearchOptions{})
	got := restored.Search(context.Background(), query, SearchOptions{})
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("search results differ after round trip:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestLoad_ReplacesExistingState(t *testing.T) {
	emb := &stubEmbedder{fallback: []float32{1, 0, 0}}

	saved := newTestEngine(t, emb, nil)
	saved.Add(context.Background(), []domain.Record{record("kept", "revenue grew")})
	path := filepath.Join(t.TempDir(), "engine.snapshot")
	if err := saved.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	e := newTestEngine(t, emb, nil)
	e.Add(context.Background(), []domain.Record{
		record("old1", "profit margin text"),
		record("old2", "cash flow text"),
	})

	if err := e.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if e.Len() != 1 {
		t.Fatalf("Len = %d after load, want 1", e.Len())
	}
	results := e.Search(context.Background(), "revenue", SearchOptions{})
	if len(results) != 1 || results[0].SourceID != "kept" {
		t.Fatalf("unexpected results after load: %+v", results)
	}
}

func TestLoad_BadBlobLeavesStateUntouched(t *testing.T) {
	emb := &stubEmbedder{fallback: []float32{1, 0, 0}}
	e := newTestEngine(t, emb, nil)
	e.Add(context.Background(), []domain.Record{record("a", "revenue grew")})

	path := filepath.Join(t.TempDir(), "garbage.snapshot")
	if err := os.WriteFile(path, []byte("not a gob blob"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	err := e.Load(path)
	if !errors.Is(err, domain.ErrBadSnapshot) {
		t.Fatalf("expected ErrBadSnapshot, got %v", err)
	}
	if e.Len() != 1 {
		t.Fatalf("state was touched by failed load: Len = %d", e.Len())
	}
	if results := e.Search(context.Background(), "revenue", SearchOptions{}); len(results) != 1 {
		t.Fatalf("index was touched by failed load")
	}
}

func TestLoad_CountMismatch(t *testing.T) {
	var buf bytes.Buffer
	bad := snapshot{
		Docs:    []snapshotDoc{{ID: "a", Content: "revenue grew", Tokens: []string{"revenue", "grew"}}},
		Weights: domain.DefaultFusionWeights(),
		Count:   5,
	}
	if err := gob.NewEncoder(&buf).Encode(bad); err != nil {
		t.Fatalf("encode: %v", err)
	}

	e := newTestEngine(t, &stubEmbedder{fallback: []float32{1, 0, 0}}, nil)
	if err := e.ReadFrom(&buf); !errors.Is(err, domain.ErrBadSnapshot) {
		t.Fatalf("expected ErrBadSnapshot, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	e := newTestEngine(t, &stubEmbedder{fallback: []float32{1, 0, 0}}, nil)
	if err := e.Load(filepath.Join(t.TempDir(), "does-not-exist")); err == nil {
		t.Fatal("expected error for missing snapshot file")
	}
}
