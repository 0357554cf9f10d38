package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"hierarag/internal/ai"
	"hierarag/internal/model"
	"hierarag/internal/vectorindex"
)

const (
	SearchToolName   = "search_child_chunks"
	RetrieveToolName = "retrieve_parent_chunks"

	DefaultSearchTopK = 5
)

type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]vectorindex.Hit, error)
}

type ParentLoader interface {
	Load(ctx context.Context, parentIDs []string) ([]model.ParentChunk, error)
}

// SearchResult is one child chunk returned to the model.
type SearchResult struct {
	Content  string `json:"content"`
	ParentID string `json:"parent_id"`
	Source   string `json:"source"`
}

type SearchChildChunksTool struct {
	index Searcher
	topK  int
}

func NewSearchChildChunksTool(index Searcher, topK int) *SearchChildChunksTool {
	if topK <= 0 {
		topK = DefaultSearchTopK
	}
	return &SearchChildChunksTool{index: index, topK: topK}
}

func (t *SearchChildChunksTool) Definition() ai.ToolDefinition {
	return functionTool(SearchToolName,
		"Search the vector index for child chunks relevant to the query. Use this first.",
		`{"type":"object","properties":{"query":{"type":"string","description":"Search query"}},"required":["query"]}`)
}

func (t *SearchChildChunksTool) Invoke(ctx context.Context, args json.RawMessage) (any, error) {
	var in struct {
		Query string `json:"query"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Query) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidArguments)
	}

	hits, err := t.index.Search(ctx, in.Query, t.topK)
	if err != nil {
		return nil, fmt.Errorf("search child chunks failed: %w", err)
	}
	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, SearchResult{Content: h.Content, ParentID: h.ParentID, Source: h.Source})
	}
	return results, nil
}

type RetrieveParentChunksTool struct {
	store ParentLoader
}

func NewRetrieveParentChunksTool(store ParentLoader) *RetrieveParentChunksTool {
	return &RetrieveParentChunksTool{store: store}
}

func (t *RetrieveParentChunksTool) Definition() ai.ToolDefinition {
	return functionTool(RetrieveToolName,
		"Fetch the full parent sections for the given parent_id values when more context is needed.",
		`{"type":"object","properties":{"parent_ids":{"type":"array","items":{"type":"string"},"description":"parent_id values from search results"}},"required":["parent_ids"]}`)
}

// Invoke returns the content of every parent found; unknown ids are skipped.
func (t *RetrieveParentChunksTool) Invoke(ctx context.Context, args json.RawMessage) (any, error) {
	var in struct {
		ParentIDs []string `json:"parent_ids"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}

	chunks, err := t.store.Load(ctx, in.ParentIDs)
	if err != nil {
		return nil, fmt.Errorf("retrieve parent chunks failed: %w", err)
	}
	contents := make([]string, 0, len(chunks))
	for _, c := range chunks {
		contents = append(contents, c.Content)
	}
	return contents, nil
}
