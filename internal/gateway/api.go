// ABOUTME: HTTP API handlers implementing the chat-completion contract
// ABOUTME: Welcome, health, model list, chat completions, test, and usage stats

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pepperlabs/pepper-gateway/internal/agent"
	"github.com/pepperlabs/pepper-gateway/internal/store"
)

// ChatMessage is a single {role, content} turn in a chat request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest is the JSON request body for POST /v1/chat/completions.
// Unknown fields sent by callers are ignored.
type ChatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

// Choice is one generated completion within a response.
type Choice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// UsageInfo reports token consumption in the response envelope.
type UsageInfo struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatCompletionResponse is the JSON response for POST /v1/chat/completions.
type ChatCompletionResponse struct {
	ID      string    `json:"id"`
	Object  string    `json:"object"`
	Created int64     `json:"created"`
	Model   string    `json:"model"`
	Choices []Choice  `json:"choices"`
	Usage   UsageInfo `json:"usage"`
}

// ModelInfo describes one entry in the GET /v1/models response.
type ModelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// ModelList is the JSON response for GET /v1/models.
type ModelList struct {
	Object string      `json:"object"`
	Data   []ModelInfo `json:"data"`
}

// TestRequest is the JSON request body for POST /test.
type TestRequest struct {
	Message string `json:"message"`
}

// TestResponse is the JSON response for POST /test. Failures are reported
// in-body with status "error" rather than an HTTP error status.
type TestResponse struct {
	Response string `json:"response"`
	Status   string `json:"status"`
}

// handleWelcome handles GET / requests. The root pattern also catches every
// unregistered path, so anything other than "/" is a 404.
func (g *Gateway) handleWelcome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		g.sendJSONError(w, http.StatusNotFound, "not found")
		return
	}

	g.writeJSON(w, http.StatusOK, map[string]string{
		"greeting": "Hello from pepper-gateway!",
		"message":  "POST /v1/chat/completions to chat with the agent",
	})
}

// handleHealth handles GET /health requests. It reports success as long as
// the process is up; upstream provider connectivity is never checked here.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	g.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"model":     g.config.Gateway.ModelID,
		"version":   Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleListModels handles GET /v1/models requests. The list is static: one
// model, same payload on every call.
func (g *Gateway) handleListModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	g.writeJSON(w, http.StatusOK, ModelList{
		Object: "list",
		Data: []ModelInfo{
			{
				ID:      g.config.Gateway.ModelID,
				Object:  "model",
				Created: g.modelCreated,
				OwnedBy: "pepper",
			},
		},
	})
}

// handleChatCompletions handles POST /v1/chat/completions requests.
// Auth has already happened in middleware by the time this runs. The full
// message list is forwarded to the agent; the response echoes whatever model
// the caller asked for.
func (g *Gateway) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		g.sendJSONError(w, http.StatusBadRequest, "messages is required")
		return
	}

	model := req.Model
	if model == "" {
		model = g.config.Gateway.ModelID
	}

	messages := make([]agent.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, agent.Message{Role: m.Role, Content: m.Content})
	}

	start := time.Now()
	reply, err := g.invoker.Invoke(r.Context(), messages)
	latency := time.Since(start)

	if err != nil {
		g.logger.Error("agent invocation failed", "error", err, "model", model)
		g.recordCompletion(model, store.StatusUpstream, agent.Usage{}, latency)
		g.sendJSONError(w, http.StatusBadGateway, "upstream provider error")
		return
	}

	g.recordCompletion(model, store.StatusOK, reply.Usage, latency)

	g.writeJSON(w, http.StatusOK, ChatCompletionResponse{
		ID:      "chatcmpl-" + uuid.New().String(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []Choice{
			{
				Index:        0,
				Message:      ChatMessage{Role: agent.RoleAssistant, Content: reply.Content},
				FinishReason: "stop",
			},
		},
		Usage: UsageInfo{
			PromptTokens:     reply.Usage.PromptTokens,
			CompletionTokens: reply.Usage.CompletionTokens,
			TotalTokens:      reply.Usage.TotalTokens,
		},
	})
}

// handleTest handles POST /test requests. Development-only: no auth, and
// failures come back as HTTP 200 with an in-body error status so they are
// trivial to poke at with curl.
func (g *Gateway) handleTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req TestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.writeJSON(w, http.StatusOK, TestResponse{Response: "invalid request body", Status: "error"})
		return
	}
	if req.Message == "" {
		req.Message = "Hello!"
	}

	reply, err := g.invoker.Invoke(r.Context(), []agent.Message{
		{Role: agent.RoleUser, Content: req.Message},
	})
	if err != nil {
		g.logger.Error("test invocation failed", "error", err)
		g.writeJSON(w, http.StatusOK, TestResponse{Response: "upstream provider error", Status: "error"})
		return
	}

	g.writeJSON(w, http.StatusOK, TestResponse{Response: reply.Content, Status: "success"})
}

// handleUsageStats handles GET /v1/usage requests.
// Optional query parameters: model, status, since, until (RFC 3339).
func (g *Gateway) handleUsageStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	filter, err := parseUsageFilter(r)
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := g.store.GetUsageStats(r.Context(), filter)
	if err != nil {
		g.logger.Error("querying usage stats failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "querying usage stats failed")
		return
	}

	g.writeJSON(w, http.StatusOK, stats)
}

// parseUsageFilter builds a store filter from query parameters.
func parseUsageFilter(r *http.Request) (store.UsageFilter, error) {
	var filter store.UsageFilter
	q := r.URL.Query()

	if model := q.Get("model"); model != "" {
		filter.Model = &model
	}
	if status := q.Get("status"); status != "" {
		if status != store.StatusOK && status != store.StatusUpstream {
			return filter, errors.New("status must be 'ok' or 'upstream'")
		}
		filter.Status = &status
	}
	if since := q.Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return filter, errors.New("since must be an RFC 3339 timestamp")
		}
		filter.Since = &t
	}
	if until := q.Get("until"); until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			return filter, errors.New("until must be an RFC 3339 timestamp")
		}
		filter.Until = &t
	}

	return filter, nil
}

// recordCompletion saves a usage record off the response path. Failures are
// logged and swallowed; accounting never breaks chat.
func (g *Gateway) recordCompletion(model, status string, usage agent.Usage, latency time.Duration) {
	rec := &store.CompletionRecord{
		ID:               uuid.New().String(),
		Model:            model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		Status:           status,
		LatencyMS:        latency.Milliseconds(),
		CreatedAt:        time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := g.store.SaveCompletion(ctx, rec); err != nil {
		g.logger.Warn("saving completion record failed", "error", err)
	}
}

// writeJSON writes a JSON response with the given status code.
func (g *Gateway) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.logger.Error("encoding response failed", "error", err)
	}
}

// sendJSONError writes a JSON error body with the given status code.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, message string) {
	g.writeJSON(w, status, map[string]string{"error": message})
}
