package toolbelt

import (
	"context"
	"strings"
)

// RerankResult is one scored document from a Reranker. Index refers to the
// position in the submitted document list.
type RerankResult struct {
	Index          int
	RelevanceScore float64
}

// Reranker scores documents by relevance to a query, best first.
// Implementations live outside the core; the rerank package provides a
// Cohere-backed one.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]RerankResult, error)
}

// RankedSchemas returns the function schemas of the tools most relevant to
// query, most relevant first, keeping at most topN entries and dropping any
// scored below minScore. Large toolkits use it to send the model a focused
// tool list instead of everything. Requires WithReranker; an empty toolkit
// yields nil without calling the reranker.
func (k *Toolkit) RankedSchemas(ctx context.Context, query string, topN int, minScore float64) ([]FunctionSchema, error) {
	if k.opts.reranker == nil {
		return nil, &ConfigError{Reason: "no reranker configured, use WithReranker"}
	}
	k.mu.RLock()
	tools := make([]Tool, 0, k.tools.Len())
	for pair := k.tools.Oldest(); pair != nil; pair = pair.Next() {
		tools = append(tools, pair.Value)
	}
	k.mu.RUnlock()
	if len(tools) == 0 {
		return nil, nil
	}
	docs := make([]string, len(tools))
	for i, t := range tools {
		docs[i] = rerankDocument(t)
	}
	ranked, err := k.opts.reranker.Rerank(ctx, query, docs, topN)
	if err != nil {
		return nil, err
	}
	schemas := make([]FunctionSchema, 0, len(ranked))
	for _, r := range ranked {
		if r.Index < 0 || r.Index >= len(tools) || r.RelevanceScore < minScore {
			continue
		}
		schemas = append(schemas, Schema(tools[r.Index]))
	}
	return schemas, nil
}

// rerankDocument renders a tool as the document submitted for scoring.
func rerankDocument(t Tool) string {
	var b strings.Builder
	b.WriteString(t.Name())
	b.WriteString(": ")
	b.WriteString(t.Description())
	if usage := t.Usage(); usage != "" {
		b.WriteString(" ")
		b.WriteString(usage)
	}
	return b.String()
}
