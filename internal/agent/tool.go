// Package agent runs the tool-calling answer loop over the chunk stores.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"hierarag/internal/ai"
)

var (
	ErrUnknownTool      = errors.New("unknown tool")
	ErrInvalidArguments = errors.New("invalid tool arguments")
)

// Tool is one named action the model may request.
type Tool interface {
	Definition() ai.ToolDefinition
	Invoke(ctx context.Context, args json.RawMessage) (any, error)
}

// Registry is a fixed set of tools dispatched by name.
type Registry struct {
	tools map[string]Tool
	defs  []ai.ToolDefinition
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		def := t.Definition()
		r.tools[def.Function.Name] = t
		r.defs = append(r.defs, def)
	}
	return r
}

// Definitions returns the tool schemas in registration order.
func (r *Registry) Definitions() []ai.ToolDefinition {
	out := make([]ai.ToolDefinition, len(r.defs))
	copy(out, r.defs)
	return out
}

func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) (any, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t.Invoke(ctx, args)
}

func functionTool(name, description, schema string) ai.ToolDefinition {
	return ai.ToolDefinition{
		Type: "function",
		Function: ai.FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters:  json.RawMessage(schema),
		},
	}
}

func decodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}
