// ABOUTME: Core agent types and the Invoker interface for LLM invocations
// ABOUTME: Defines messages, replies, usage counters, and upstream errors

package agent

import (
	"context"
	"errors"
)

// Message roles accepted from callers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrUpstream is returned when the provider call fails. Handlers translate
// it to a 502 without exposing provider detail to the caller.
var ErrUpstream = errors.New("upstream provider request failed")

// Message is a single turn in a conversation.
type Message struct {
	Role    string
	Content string
}

// Usage holds token consumption counters reported by the provider.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Reply is the agent's answer to one invocation.
type Reply struct {
	Content string
	Usage   Usage
}

// Invoker is the narrow seam between the gateway and the conversational
// agent: conversation in, text out. Implementations own provider selection,
// tool execution, and timeouts; failures are reported as ErrUpstream.
type Invoker interface {
	Invoke(ctx context.Context, messages []Message) (*Reply, error)
}
