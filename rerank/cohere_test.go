package rerank

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolbelt-ai/toolbelt"
)

func TestCohereRerank(t *testing.T) {
	var gotAuth, gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{
			"results": [
				{"index": 1, "relevance_score": 0.98},
				{"index": 0, "relevance_score": 0.12}
			]
		}`))
	}))
	defer srv.Close()

	reranker := NewCohere("test-key", WithBaseURL(srv.URL), WithModel("rerank-english-v3.0"))
	results, err := reranker.Rerank(context.Background(), "find a calculator",
		[]string{"weather: current conditions", "add: adds two numbers"}, 2)
	require.NoError(t, err)

	assert.Equal(t, []toolbelt.RerankResult{
		{Index: 1, RelevanceScore: 0.98},
		{Index: 0, RelevanceScore: 0.12},
	}, results)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, `{
		"model": "rerank-english-v3.0",
		"query": "find a calculator",
		"documents": ["weather: current conditions", "add: adds two numbers"],
		"top_n": 2
	}`, string(gotBody))
}

func TestCohereOmitsZeroTopN(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	reranker := NewCohere("test-key", WithBaseURL(srv.URL))
	results, err := reranker.Rerank(context.Background(), "q", []string{"doc"}, 0)
	require.NoError(t, err)
	assert.Empty(t, results)

	var req map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &req))
	assert.Equal(t, "rerank-v3.5", req["model"])
	assert.NotContains(t, req, "top_n")
}

func TestCohereUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "invalid api token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	reranker := NewCohere("bad-key", WithBaseURL(srv.URL))
	_, err := reranker.Rerank(context.Background(), "q", []string{"doc"}, 1)
	require.Error(t, err)
	require.True(t, toolbelt.IsUpstreamError(err))

	var upstreamErr *toolbelt.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusUnauthorized, upstreamErr.Status)
	assert.Contains(t, upstreamErr.Message, "invalid api token")
}

func TestCohereMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	reranker := NewCohere("test-key", WithBaseURL(srv.URL))
	_, err := reranker.Rerank(context.Background(), "q", []string{"doc"}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode rerank response")
}
