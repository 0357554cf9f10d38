package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hierarag/internal/agent"
	"hierarag/internal/ai"
	"hierarag/internal/model"
	"hierarag/internal/vectorindex"
)

const (
	DefaultSimpleTopK = 4
	NoAnswerPhrase    = "No answer found in the provided documents."
)

type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]vectorindex.Hit, error)
}

// Completer runs a single generation call.
type Completer interface {
	Complete(ctx context.Context, messages []ai.ChatMessage) (string, error)
}

// SimpleRetriever answers with one search and one generation call.
type SimpleRetriever struct {
	index Searcher
	llm   Completer
	topK  int
}

func NewSimpleRetriever(index Searcher, llm Completer, topK int) *SimpleRetriever {
	if topK <= 0 {
		topK = DefaultSimpleTopK
	}
	return &SimpleRetriever{index: index, llm: llm, topK: topK}
}

type SimpleAnswer struct {
	Answer   string         `json:"answer"`
	Sources  []model.Source `json:"sources"`
	Contexts []string       `json:"contexts"`
}

func (r *SimpleRetriever) Answer(ctx context.Context, query string) (*SimpleAnswer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidInput
	}

	hits, err := r.index.Search(ctx, query, r.topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}

	contexts := make([]string, len(hits))
	sources := make([]model.Source, len(hits))
	for i, h := range hits {
		contexts[i] = h.Content
		sources[i] = model.NewSource(h.Source, h.Content)
	}

	answer, err := r.llm.Complete(ctx, simplePrompt(query, contexts))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	return &SimpleAnswer{
		Answer:   strings.TrimSpace(answer),
		Sources:  sources,
		Contexts: contexts,
	}, nil
}

func simplePrompt(query string, contexts []string) []ai.ChatMessage {
	system := "You are a helpful assistant. Answer the question using only the context below. " +
		"If the context does not contain the answer, reply exactly: \"" + NoAnswerPhrase + "\" Do not make up facts."
	user := "Context:\n" + strings.Join(contexts, "\n\n") + "\n\nQuestion: " + query + "\n\nAnswer:"
	return []ai.ChatMessage{
		{Role: ai.RoleSystem, Content: system},
		{Role: ai.RoleUser, Content: user},
	}
}

// AgentService answers through the tool-calling agent loop.
type AgentService struct {
	orchestrator *agent.Orchestrator
}

func NewAgentService(orchestrator *agent.Orchestrator) *AgentService {
	return &AgentService{orchestrator: orchestrator}
}

type AgenticAnswer struct {
	Answer  string         `json:"answer"`
	Sources []model.Source `json:"sources"`
	Rounds  int            `json:"rounds"`
}

// Answer returns ErrNotConverged when the loop hits its round limit and
// ErrRetrieval for any other failure.
func (s *AgentService) Answer(ctx context.Context, query string) (*AgenticAnswer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidInput
	}
	res, err := s.orchestrator.Run(ctx, query)
	if err != nil {
		if errors.Is(err, ErrNotConverged) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	return &AgenticAnswer{Answer: res.Answer, Sources: res.Sources, Rounds: res.Rounds}, nil
}
