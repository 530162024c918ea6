// ABOUTME: Local tool registry exposed to the model during invocations
// ABOUTME: Ships two builtin tools: current_time and echo

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Tool is a locally executed function the model may call mid-conversation.
type Tool struct {
	Name        string
	Description string
	// Parameters is a JSON Schema object describing the arguments.
	Parameters map[string]any
	// Run executes the tool with the model-provided JSON arguments.
	Run func(ctx context.Context, args json.RawMessage) (string, error)
}

// Registry holds the tools available to the agent, in registration order.
type Registry struct {
	logger *slog.Logger
	tools  map[string]Tool
	order  []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger,
		tools:  make(map[string]Tool),
	}
}

// Register adds a tool to the registry. Duplicate names are rejected.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if t.Run == nil {
		return fmt.Errorf("tool %q has no Run function", t.Name)
	}
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("tool %q already registered", t.Name)
	}
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// List returns the registered tools in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}

// Execute runs the named tool with the given arguments.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}

	r.logger.Debug("executing tool", "tool", name)
	out, err := t.Run(ctx, args)
	if err != nil {
		return "", fmt.Errorf("tool %s: %w", name, err)
	}
	return out, nil
}

// Builtins returns the default tool set bound to every agent invocation.
func Builtins() []Tool {
	return []Tool{
		{
			Name:        "current_time",
			Description: "Get the current time.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
			Run: func(ctx context.Context, args json.RawMessage) (string, error) {
				return time.Now().Format("2006-01-02 15:04:05"), nil
			},
		},
		{
			Name:        "echo",
			Description: "Echo back a message with a prefix.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"message": map[string]any{
						"type":        "string",
						"description": "The message to echo back.",
					},
				},
				"required": []string{"message"},
			},
			Run: func(ctx context.Context, args json.RawMessage) (string, error) {
				var in struct {
					Message string `json:"message"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return "", fmt.Errorf("parsing arguments: %w", err)
				}
				return "Echo: " + in.Message, nil
			},
		},
	}
}

// NewBuiltinRegistry creates a registry pre-loaded with the builtin tools.
func NewBuiltinRegistry(logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	for _, t := range Builtins() {
		// Builtins have unique names; Register cannot fail here.
		_ = r.Register(t)
	}
	return r
}
