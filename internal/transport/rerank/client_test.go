package rerank

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

func pairsFor(query string, docs ...string) []domain.RerankPair {
	pairs := make([]domain.RerankPair, len(docs))
	for i, d := range docs {
		pairs[i] = domain.RerankPair{Query: query, Document: d}
	}
	return pairs
}

func TestClient_Score(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/rerank" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}

		var req rerankRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Query != "quarterly revenue" || len(req.Documents) != 2 {
			t.Errorf("unexpected request: %+v", req)
		}

		// Results arrive sorted by score, not by input order.
		_, _ = w.Write([]byte(`{"results": [
			{"index": 1, "relevance_score": 0.9},
			{"index": 0, "relevance_score": 0.2}
		]}`))
	}))
	defer server.Close()

	c := NewClient(&Config{BaseURL: server.URL, APIKey: "test-key", Model: "test-rerank", Logger: zap.NewNop()})

	scores, err := c.Score(context.Background(), pairsFor("quarterly revenue", "doc a", "doc b"))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(scores) != 2 || scores[0] != 0.2 || scores[1] != 0.9 {
		t.Fatalf("scores not mapped back to input order: %v", scores)
	}
}

func TestClient_EmptyPairs(t *testing.T) {
	c := NewClient(&Config{BaseURL: "http://unused"})
	scores, err := c.Score(context.Background(), nil)
	if err != nil || scores != nil {
		t.Fatalf("expected nil/nil, got %v/%v", scores, err)
	}
}

func TestClient_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewClient(&Config{BaseURL: server.URL})
	if _, err := c.Score(context.Background(), pairsFor("q", "d")); !errors.Is(err, domain.ErrRerankProviderError) {
		t.Fatalf("expected ErrRerankProviderError, got %v", err)
	}
}

func TestClient_BadIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": [{"index": 5, "relevance_score": 0.9}]}`))
	}))
	defer server.Close()

	c := NewClient(&Config{BaseURL: server.URL})
	if _, err := c.Score(context.Background(), pairsFor("q", "d")); !errors.Is(err, domain.ErrRerankProviderError) {
		t.Fatalf("expected ErrRerankProviderError, got %v", err)
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	c := NewClient(&Config{BaseURL: "http://127.0.0.1:1"})
	if _, err := c.Score(context.Background(), pairsFor("q", "d")); !errors.Is(err, domain.ErrRerankProviderError) {
		t.Fatalf("expected ErrRerankProviderError, got %v", err)
	}
}
