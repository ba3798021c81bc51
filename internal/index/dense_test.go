package index

import (
	"math"
	"testing"
)

func TestCosine_Bounds(t *testing.T) {
	vectors := [][]float32{
		{1, 0, 0},
		{0.5, 0.5, 0.7},
		{-1, 2, -3},
		{0.001, 0, 100},
	}
	for _, a := range vectors {
		for _, b := range vectors {
			c := Cosine(a, b)
			if math.IsNaN(c) || c < -1.0000001 || c > 1.0000001 {
				t.Errorf("Cosine(%v, %v) = %f out of bounds", a, b, c)
			}
		}
	}
}

func TestCosine_ZeroVector(t *testing.T) {
	zero := []float32{0, 0, 0}
	if c := Cosine(zero, []float32{1, 2, 3}); c != 0 {
		t.Fatalf("zero vector similarity = %f, want 0", c)
	}
	if c := Cosine(zero, zero); c != 0 {
		t.Fatalf("zero/zero similarity = %f, want 0", c)
	}
}

func TestCosine_OppositeAndIdentical(t *testing.T) {
	a := []float32{1, 2, 3}
	if c := Cosine(a, a); math.Abs(c-1) > 1e-9 {
		t.Errorf("identical vectors = %f, want 1", c)
	}
	neg := []float32{-1, -2, -3}
	if c := Cosine(a, neg); math.Abs(c+1) > 1e-9 {
		t.Errorf("opposite vectors = %f, want -1", c)
	}
}

func TestDense_Search(t *testing.T) {
	d := NewDense([][]float32{
		{1, 0},      // aligned with query
		{0.7, 0.7},  // partially aligned
		{0, 0},      // failed embedding
		{-1, 0},     // opposite, negative similarity dropped
	})

	hits := d.Search([]float32{1, 0}, 10)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d: %v", len(hits), hits)
	}
	if hits[0].Pos != 0 || hits[1].Pos != 1 {
		t.Fatalf("unexpected order: %v", hits)
	}
	if hits[0].Score < hits[1].Score {
		t.Fatalf("hits not sorted: %v", hits)
	}
}

func TestDense_EmptyAndZeroQuery(t *testing.T) {
	t.Run("empty index", func(t *testing.T) {
		d := NewDense(nil)
		if hits := d.Search([]float32{1, 0}, 10); len(hits) != 0 {
			t.Fatalf("expected no hits, got %v", hits)
		}
	})

	t.Run("zero query", func(t *testing.T) {
		d := NewDense([][]float32{{1, 0}})
		if hits := d.Search([]float32{0, 0}, 10); len(hits) != 0 {
			t.Fatalf("expected no hits, got %v", hits)
		}
	})
}

func TestDense_TopKLimiting(t *testing.T) {
	rows := make([][]float32, 6)
	for i := range rows {
		rows[i] = []float32{1, float32(i) * 0.1}
	}
	d := NewDense(rows)

	if hits := d.Search([]float32{1, 0}, 2); len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
}
