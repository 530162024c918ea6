// ABOUTME: Invoker implementation backed by an OpenAI-compatible provider API
// ABOUTME: Runs the tool-call loop and aggregates token usage across rounds

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/pepperlabs/pepper-gateway/internal/config"
)

// Client invokes the upstream LLM provider through its OpenAI-compatible
// chat completion API. One Invoke call may issue several provider requests
// when the model asks for tools, bounded by maxToolRounds; the whole loop
// counts as a single logical invocation with aggregated usage.
type Client struct {
	api           *openai.Client
	model         string
	maxTokens     int
	temperature   float32
	maxToolRounds int
	tools         *Registry
	logger        *slog.Logger
}

// NewClient creates a provider client from configuration. The registry may
// be nil or empty, in which case no tools are offered to the model.
func NewClient(cfg config.ProviderConfig, tools *Registry, logger *slog.Logger) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		api:           openai.NewClientWithConfig(apiCfg),
		model:         cfg.Model,
		maxTokens:     cfg.MaxTokens,
		temperature:   cfg.Temperature,
		maxToolRounds: cfg.MaxToolRounds,
		tools:         tools,
		logger:        logger,
	}
}

// Invoke sends the conversation to the provider and returns the final
// assistant reply. Messages with unknown roles are dropped rather than
// rejected, matching what the upstream API would accept.
func (c *Client) Invoke(ctx context.Context, messages []Message) (*Reply, error) {
	chat := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem, RoleUser, RoleAssistant:
			chat = append(chat, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
		default:
			c.logger.Debug("dropping message with unsupported role", "role", m.Role)
		}
	}

	var usage Usage
	for round := 0; ; round++ {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			Messages:    chat,
			MaxTokens:   c.maxTokens,
			Temperature: c.temperature,
			Tools:       c.toolDefinitions(),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("%w: provider returned no choices", ErrUpstream)
		}

		usage.PromptTokens += resp.Usage.PromptTokens
		usage.CompletionTokens += resp.Usage.CompletionTokens
		usage.TotalTokens += resp.Usage.TotalTokens

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 || round >= c.maxToolRounds || c.tools == nil || c.tools.Len() == 0 {
			return &Reply{Content: msg.Content, Usage: usage}, nil
		}

		chat = append(chat, msg)
		for _, tc := range msg.ToolCalls {
			out, err := c.tools.Execute(ctx, tc.Function.Name, json.RawMessage(tc.Function.Arguments))
			if err != nil {
				// Report the failure back to the model instead of aborting;
				// it can recover or apologize on its own.
				c.logger.Warn("tool execution failed", "tool", tc.Function.Name, "error", err)
				out = fmt.Sprintf("tool error: %v", err)
			}
			chat = append(chat, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    out,
				ToolCallID: tc.ID,
			})
		}
	}
}

// toolDefinitions converts the registry to the provider's tool schema.
func (c *Client) toolDefinitions() []openai.Tool {
	if c.tools == nil || c.tools.Len() == 0 {
		return nil
	}

	defs := make([]openai.Tool, 0, c.tools.Len())
	for _, t := range c.tools.List() {
		defs = append(defs, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return defs
}

// Interface guard
var _ Invoker = (*Client)(nil)
