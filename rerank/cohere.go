// Package rerank provides relevance rerankers for toolkit schema filtering.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/toolbelt-ai/toolbelt"
)

const (
	defaultCohereURL   = "https://api.cohere.com/v2/rerank"
	defaultCohereModel = "rerank-v3.5"
)

// Cohere scores documents with the Cohere v2 rerank API. It implements
// toolbelt.Reranker.
type Cohere struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

var _ toolbelt.Reranker = (*Cohere)(nil)

// CohereOption configures the Cohere reranker.
type CohereOption func(*Cohere)

// WithModel overrides the rerank model. Defaults to rerank-v3.5.
func WithModel(model string) CohereOption {
	return func(c *Cohere) {
		c.model = model
	}
}

// WithBaseURL overrides the API endpoint, for proxies and tests.
func WithBaseURL(base string) CohereOption {
	return func(c *Cohere) {
		c.baseURL = base
	}
}

// WithHTTPClient sets the HTTP client. Defaults to http.DefaultClient.
func WithHTTPClient(client *http.Client) CohereOption {
	return func(c *Cohere) {
		c.client = client
	}
}

// NewCohere creates a reranker authenticated with apiKey.
func NewCohere(apiKey string, opts ...CohereOption) *Cohere {
	c := &Cohere{
		apiKey:  apiKey,
		model:   defaultCohereModel,
		baseURL: defaultCohereURL,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n,omitempty"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank submits the documents and returns them scored, best first.
func (c *Cohere) Rerank(ctx context.Context, query string, documents []string, topN int) ([]toolbelt.RerankResult, error) {
	payload, err := json.Marshal(rerankRequest{
		Model:     c.model,
		Query:     query,
		Documents: documents,
		TopN:      topN,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &toolbelt.UpstreamError{Message: "rerank request failed", Err: err}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &toolbelt.UpstreamError{Status: resp.StatusCode, Message: "read rerank response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &toolbelt.UpstreamError{Status: resp.StatusCode, Message: string(data)}
	}
	var parsed rerankResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w", err)
	}
	results := make([]toolbelt.RerankResult, len(parsed.Results))
	for i, r := range parsed.Results {
		results[i] = toolbelt.RerankResult{Index: r.Index, RelevanceScore: r.RelevanceScore}
	}
	return results, nil
}
