package index

import (
	"math"
	"sort"
)

// Okapi BM25 free parameters (standard values).
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// Hit is one scored corpus position.
type Hit struct {
	Pos   int
	Score float64
}

// Sparse is an Okapi BM25 keyword-statistics index. It is built once per
// rebuild from the token sequences of all stored documents and is read-only
// afterwards.
type Sparse struct {
	termFreqs []map[string]int // per-document term counts
	docFreq   map[string]int   // number of documents containing each term
	docLens   []int
	avgDocLen float64
}

// NewSparse builds a BM25 index from per-document token sequences.
func NewSparse(corpus [][]string) *Sparse {
	s := &Sparse{
		termFreqs: make([]map[string]int, len(corpus)),
		docFreq:   make(map[string]int),
		docLens:   make([]int, len(corpus)),
	}

	var totalLen int
	for i, tokens := range corpus {
		tf := make(map[string]int, len(tokens))
		for _, t := range tokens {
			tf[t]++
		}
		s.termFreqs[i] = tf
		s.docLens[i] = len(tokens)
		totalLen += len(tokens)

		for t := range tf {
			s.docFreq[t]++
		}
	}

	if len(corpus) > 0 {
		s.avgDocLen = float64(totalLen) / float64(len(corpus))
	}
	return s
}

// Len returns the number of indexed documents.
func (s *Sparse) Len() int { return len(s.termFreqs) }

// VocabSize returns the number of distinct terms in the corpus.
func (s *Sparse) VocabSize() int { return len(s.docFreq) }

// Search scores every document against the query terms and returns up to
// topK positive-score hits, highest first. An empty index or an empty query
// yields no hits.
func (s *Sparse) Search(queryTokens []string, topK int) []Hit {
	if s.Len() == 0 || len(queryTokens) == 0 || topK <= 0 {
		return nil
	}

	scores := make([]float64, s.Len())
	for _, term := range queryTokens {
		idf := s.idf(term)
		if idf == 0 {
			continue
		}
		for pos, tf := range s.termFreqs {
			freq := float64(tf[term])
			if freq == 0 {
				continue
			}
			norm := bm25K1 * (1 - bm25B + bm25B*float64(s.docLens[pos])/s.avgDocLen)
			scores[pos] += idf * freq * (bm25K1 + 1) / (freq + norm)
		}
	}

	hits := make([]Hit, 0, topK)
	for pos, score := range scores {
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

// idf is the non-negative variant of inverse document frequency:
// ln((N - df + 0.5)/(df + 0.5) + 1). A term found in every document
// contributes roughly zero; an unknown term contributes exactly zero.
func (s *Sparse) idf(term string) float64 {
	df := float64(s.docFreq[term])
	if df == 0 {
		return 0
	}
	n := float64(s.Len())
	return math.Log((n-df+0.5)/(df+0.5) + 1)
}

// sortHits orders by descending score, breaking ties by corpus position for
// a deterministic ordering.
func sortHits(hits []Hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score == hits[j].Score {
			return hits[i].Pos < hits[j].Pos
		}
		return hits[i].Score > hits[j].Score
	})
}
