package index

import "math"

// Dense is a row-per-document embedding matrix searched by cosine
// similarity. Rows where embedding computation failed are all-zero and score
// 0 against every query, which keeps them out of the dense channel without
// failing the build.
type Dense struct {
	rows  [][]float32
	norms []float64 // precomputed L2 norms, 0 for zero rows
}

// NewDense builds a dense index from per-document embedding vectors.
func NewDense(rows [][]float32) *Dense {
	d := &Dense{
		rows:  rows,
		norms: make([]float64, len(rows)),
	}
	for i, row := range rows {
		d.norms[i] = l2norm(row)
	}
	return d
}

// Len returns the number of indexed rows.
func (d *Dense) Len() int { return len(d.rows) }

// Search returns up to topK positions with positive cosine similarity to the
// query vector, highest first.
func (d *Dense) Search(query []float32, topK int) []Hit {
	if d.Len() == 0 || topK <= 0 {
		return nil
	}

	queryNorm := l2norm(query)
	if queryNorm == 0 {
		return nil
	}

	hits := make([]Hit, 0, topK)
	for pos, row := range d.rows {
		if d.norms[pos] == 0 || len(row) != len(query) {
			continue
		}
		score := dot(row, query) / (d.norms[pos] * queryNorm)
		if score > 0 {
			hits = append(hits, Hit{Pos: pos, Score: score})
		}
	}
	sortHits(hits)

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// Cosine returns the cosine similarity of two vectors. A zero-norm vector or
// a length mismatch yields 0 by definition, never NaN.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	na, nb := l2norm(a), l2norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return dot(a, b) / (na * nb)
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func l2norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
