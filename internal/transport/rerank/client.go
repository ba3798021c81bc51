// Package rerank implements the reranker boundary over an external
// cross-encoder HTTP API (Cohere/Jina wire shape: POST /v1/rerank).
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

const defaultTimeout = 30 * time.Second

// Client scores (query, document) pairs via the rerank API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *zap.Logger
}

// Config holds the rerank provider settings.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewClient creates a rerank API client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		logger:     logger,
	}
}

type rerankRequest struct {
	Model           string   `json:"model"`
	Query           string   `json:"query"`
	Documents       []string `json:"documents"`
	TopN            int      `json:"top_n"`
	ReturnDocuments bool     `json:"return_documents"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Score implements domain.Reranker. All pairs in one call share the query,
// which is how the engine forms them; the documents are submitted in one
// API request and scores come back in input order.
//
// Failures are wrapped with domain.ErrRerankProviderError; the engine
// converts them into "keep the fused order".
func (c *Client) Score(ctx context.Context, pairs []domain.RerankPair) ([]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	docs := make([]string, len(pairs))
	for i, p := range pairs {
		docs[i] = p.Document
	}

	body, err := json.Marshal(rerankRequest{
		Model:     c.model,
		Query:     pairs[0].Query,
		Documents: docs,
		TopN:      len(docs),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+"/v1/rerank", bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("build rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", domain.ErrRerankProviderError)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rerank API error %d: %s: %w",
			resp.StatusCode, string(detail), domain.ErrRerankProviderError)
	}

	var parsed rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w", domain.ErrRerankProviderError)
	}

	scores := make([]float64, len(pairs))
	for _, r := range parsed.Results {
		if r.Index < 0 || r.Index >= len(scores) {
			return nil, fmt.Errorf("rerank result index %d out of range: %w",
				r.Index, domain.ErrRerankProviderError)
		}
		scores[r.Index] = r.RelevanceScore
	}

	c.logger.Debug("Rerank call completed",
		zap.Int("documents", len(docs)),
		zap.Duration("duration", time.Since(start)),
	)
	return scores, nil
}
