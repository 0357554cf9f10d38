package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"hierarag/internal/ai"
	"hierarag/internal/model"
)

const DefaultMaxRounds = 10

const defaultSystemPrompt = `You are a helpful RAG assistant.
1. First, ALWAYS search for relevant information using 'search_child_chunks'.
2. Analyze the search results. If you need more context, use 'retrieve_parent_chunks' with the parent_id values.
3. Answer based ONLY on retrieved info.`

var (
	ErrNotConverged = errors.New("agent did not converge")
	ErrEmptyQuery   = errors.New("query is empty")
)

type State int

const (
	StateAgent State = iota
	StateTools
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAgent:
		return "agent"
	case StateTools:
		return "tools"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ChatModel produces the next assistant turn given the transcript so far.
type ChatModel interface {
	Chat(ctx context.Context, messages []ai.ChatMessage, tools []ai.ToolDefinition) (ai.ChatMessage, error)
}

type Orchestrator struct {
	model              ChatModel
	registry           *Registry
	maxRounds          int
	enforceSearchFirst bool
	systemPrompt       string
	logger             *slog.Logger
}

type Option func(*Orchestrator)

// WithMaxRounds bounds the number of agent/tools cycles. Values <= 0 keep the default.
func WithMaxRounds(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxRounds = n
		}
	}
}

// WithEnforceSearchFirst rejects any tool call made before a search has run.
func WithEnforceSearchFirst(enabled bool) Option {
	return func(o *Orchestrator) { o.enforceSearchFirst = enabled }
}

func WithSystemPrompt(prompt string) Option {
	return func(o *Orchestrator) {
		if prompt != "" {
			o.systemPrompt = prompt
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func New(chat ChatModel, registry *Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		model:        chat,
		registry:     registry,
		maxRounds:    DefaultMaxRounds,
		systemPrompt: defaultSystemPrompt,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type Result struct {
	Answer     string
	Sources    []model.Source
	Rounds     int
	Transcript *Transcript
}

// Run drives the loop until the model answers without requesting tools.
// More than maxRounds tool rounds yields ErrNotConverged.
func (o *Orchestrator) Run(ctx context.Context, query string) (*Result, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	t := &Transcript{}
	t.Append(Turn{Message: ai.ChatMessage{Role: ai.RoleSystem, Content: o.systemPrompt}})
	t.Append(Turn{Message: ai.ChatMessage{Role: ai.RoleUser, Content: query}})

	defs := o.registry.Definitions()
	state := StateAgent
	rounds := 0
	searched := false

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch state {
		case StateAgent:
			reply, err := o.model.Chat(ctx, t.Messages(), defs)
			if err != nil {
				return nil, fmt.Errorf("agent model call failed: %w", err)
			}
			reply.Role = ai.RoleAssistant
			t.Append(Turn{Message: reply})

			if len(reply.ToolCalls) == 0 {
				state = StateDone
				continue
			}
			if rounds >= o.maxRounds {
				return nil, fmt.Errorf("%w after %d rounds", ErrNotConverged, rounds)
			}
			rounds++
			state = StateTools

		case StateTools:
			last, _ := t.Last()
			for _, call := range last.Message.ToolCalls {
				turn, err := o.execute(ctx, call, searched)
				if err != nil {
					return nil, err
				}
				if call.Function.Name == SearchToolName && turn.Result != nil {
					searched = true
				}
				t.Append(turn)
			}
			state = StateAgent

		case StateDone:
			last, _ := t.Last()
			return &Result{
				Answer:     last.Message.Content,
				Sources:    ExtractSources(t),
				Rounds:     rounds,
				Transcript: t,
			}, nil
		}
	}
}

type toolError struct {
	Error string `json:"error"`
}

// execute runs one call. Rejected calls become error result turns so the
// model can correct itself; backend failures abort the run.
func (o *Orchestrator) execute(ctx context.Context, call ai.ToolCall, searched bool) (Turn, error) {
	name := call.Function.Name
	turn := Turn{Message: ai.ChatMessage{Role: ai.RoleTool, ToolCallID: call.ID, Name: name}}

	if o.enforceSearchFirst && !searched && name != SearchToolName && o.registry.Has(name) {
		return o.rejected(turn, fmt.Sprintf("call %s before %s", SearchToolName, name)), nil
	}

	result, err := o.registry.Invoke(ctx, name, json.RawMessage(call.Function.Arguments))
	if errors.Is(err, ErrUnknownTool) || errors.Is(err, ErrInvalidArguments) {
		return o.rejected(turn, err.Error()), nil
	}
	if err != nil {
		return Turn{}, fmt.Errorf("tool %s failed: %w", name, err)
	}

	content, err := json.Marshal(result)
	if err != nil {
		return Turn{}, fmt.Errorf("encode %s result failed: %w", name, err)
	}
	turn.Message.Content = string(content)
	turn.Result = result
	return turn, nil
}

func (o *Orchestrator) rejected(turn Turn, reason string) Turn {
	o.logger.Warn("tool call rejected", "tool", turn.Message.Name, "reason", reason)
	content, _ := json.Marshal(toolError{Error: reason})
	turn.Message.Content = string(content)
	return turn
}
