// Package agent talks to the upstream LLM provider and runs the tool loop.
//
// # Overview
//
// The agent package wraps the provider's chat-completion API behind a small
// Invoker interface. The gateway hands it the conversation history and gets
// back a single assistant reply plus token usage, regardless of how many
// provider round-trips the tool loop needed.
//
// # Invoker
//
// Invoker is the only surface the gateway depends on:
//
//	type Invoker interface {
//	    Invoke(ctx context.Context, messages []Message) (*Reply, error)
//	}
//
// The production implementation is Client, built on the OpenAI-compatible
// chat-completions API:
//
//	client := agent.NewClient(cfg.Provider, agent.NewBuiltinRegistry(logger), logger)
//	reply, err := client.Invoke(ctx, messages)
//
// Any provider failure (transport error, non-2xx status, empty choices)
// wraps ErrUpstream so callers can map it to a gateway error without
// inspecting provider internals.
//
// # Tool Loop
//
// When the provider returns tool calls, Client executes them against the
// Registry and feeds the results back as tool-role messages, then asks the
// provider again. The loop is bounded by provider.max_tool_rounds; once the
// budget is spent the last assistant content is returned as-is. Token usage
// is summed across all rounds.
//
// # Registry
//
// Registry holds named tools with JSON-schema parameters. Builtins() provides
// the stock set:
//
//   - current_time: returns the current time in RFC 3339 form
//   - echo: echoes a message back, prefixed with "Echo: "
//
// Tool execution errors do not fail the invocation; the error text is
// returned to the model as the tool result so it can recover.
package agent
