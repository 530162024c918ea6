// ABOUTME: Tests for the provider client using a fake OpenAI-compatible server
// ABOUTME: Covers the happy path, tool-call rounds, and upstream failures

package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pepperlabs/pepper-gateway/internal/config"
)

// fakeProvider emulates the chat-completions endpoint. Each call pops the
// next scripted response; requests are recorded for inspection.
type fakeProvider struct {
	t         *testing.T
	responses []string
	requests  []map[string]any
}

func (f *fakeProvider) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			f.t.Errorf("decoding provider request: %v", err)
		}
		f.requests = append(f.requests, req)

		if len(f.responses) == 0 {
			f.t.Error("provider called more times than scripted")
			http.Error(w, "no scripted response", http.StatusInternalServerError)
			return
		}
		body := f.responses[0]
		f.responses = f.responses[1:]

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeProvider, tools *Registry, maxToolRounds int) (*Client, *httptest.Server) {
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	cfg := config.ProviderConfig{
		APIKey:        "test-key",
		BaseURL:       srv.URL + "/v1",
		Model:         "test-model",
		MaxTokens:     100,
		Temperature:   0.5,
		Timeout:       5 * time.Second,
		MaxToolRounds: maxToolRounds,
	}
	return NewClient(cfg, tools, testLogger()), srv
}

const plainResponse = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "Hello from the model"}, "finish_reason": "stop"}],
	"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
}`

const toolCallResponse = `{
	"id": "chatcmpl-2",
	"object": "chat.completion",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "", "tool_calls": [
		{"id": "call_1", "type": "function", "function": {"name": "echo", "arguments": "{\"message\":\"ping\"}"}}
	]}, "finish_reason": "tool_calls"}],
	"usage": {"prompt_tokens": 20, "completion_tokens": 8, "total_tokens": 28}
}`

func TestClient_Invoke(t *testing.T) {
	f := &fakeProvider{t: t, responses: []string{plainResponse}}
	client, _ := newTestClient(t, f, nil, 4)

	reply, err := client.Invoke(context.Background(), []Message{
		{Role: RoleSystem, Content: "You are helpful."},
		{Role: RoleUser, Content: "Say hello"},
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	if reply.Content != "Hello from the model" {
		t.Errorf("Content = %q, want %q", reply.Content, "Hello from the model")
	}
	if reply.Usage.TotalTokens != 17 {
		t.Errorf("TotalTokens = %d, want 17", reply.Usage.TotalTokens)
	}

	if len(f.requests) != 1 {
		t.Fatalf("provider called %d times, want 1", len(f.requests))
	}
	req := f.requests[0]
	if req["model"] != "test-model" {
		t.Errorf("model = %v, want test-model", req["model"])
	}
	msgs, _ := req["messages"].([]any)
	if len(msgs) != 2 {
		t.Errorf("provider got %d messages, want 2", len(msgs))
	}
}

func TestClient_Invoke_DropsUnknownRoles(t *testing.T) {
	f := &fakeProvider{t: t, responses: []string{plainResponse}}
	client, _ := newTestClient(t, f, nil, 4)

	_, err := client.Invoke(context.Background(), []Message{
		{Role: "function", Content: "ignored"},
		{Role: RoleUser, Content: "Hi"},
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	msgs, _ := f.requests[0]["messages"].([]any)
	if len(msgs) != 1 {
		t.Errorf("provider got %d messages, want 1 (unknown role dropped)", len(msgs))
	}
}

func TestClient_Invoke_ToolRound(t *testing.T) {
	f := &fakeProvider{t: t, responses: []string{toolCallResponse, plainResponse}}
	client, _ := newTestClient(t, f, NewBuiltinRegistry(testLogger()), 4)

	reply, err := client.Invoke(context.Background(), []Message{
		{Role: RoleUser, Content: "Echo ping"},
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	if reply.Content != "Hello from the model" {
		t.Errorf("Content = %q, want final round content", reply.Content)
	}
	// Usage is summed across both rounds.
	if reply.Usage.TotalTokens != 45 {
		t.Errorf("TotalTokens = %d, want 45", reply.Usage.TotalTokens)
	}

	if len(f.requests) != 2 {
		t.Fatalf("provider called %d times, want 2", len(f.requests))
	}

	// The second request must carry the tool result back to the model.
	msgs, _ := f.requests[1]["messages"].([]any)
	var toolMsg map[string]any
	for _, m := range msgs {
		mm, _ := m.(map[string]any)
		if mm["role"] == "tool" {
			toolMsg = mm
		}
	}
	if toolMsg == nil {
		t.Fatal("second request has no tool message")
	}
	if toolMsg["content"] != "Echo: ping" {
		t.Errorf("tool result = %v, want %q", toolMsg["content"], "Echo: ping")
	}
	if toolMsg["tool_call_id"] != "call_1" {
		t.Errorf("tool_call_id = %v, want call_1", toolMsg["tool_call_id"])
	}
}

func TestClient_Invoke_ToolErrorFedBack(t *testing.T) {
	reg := NewRegistry(testLogger())
	err := reg.Register(Tool{
		Name: "echo",
		Run: func(ctx context.Context, args json.RawMessage) (string, error) {
			return "", errors.New("boom")
		},
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	f := &fakeProvider{t: t, responses: []string{toolCallResponse, plainResponse}}
	client, _ := newTestClient(t, f, reg, 4)

	reply, err := client.Invoke(context.Background(), []Message{
		{Role: RoleUser, Content: "Echo ping"},
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if reply.Content != "Hello from the model" {
		t.Errorf("Content = %q, want final round content", reply.Content)
	}

	msgs, _ := f.requests[1]["messages"].([]any)
	found := false
	for _, m := range msgs {
		mm, _ := m.(map[string]any)
		if mm["role"] == "tool" {
			content, _ := mm["content"].(string)
			if content == "" || content[:10] != "tool error" {
				t.Errorf("tool message content = %q, want a tool error report", content)
			}
			found = true
		}
	}
	if !found {
		t.Error("tool failure was not reported back to the model")
	}
}

func TestClient_Invoke_ToolRoundLimit(t *testing.T) {
	// The provider keeps asking for tools; the loop must stop at the bound.
	f := &fakeProvider{t: t, responses: []string{toolCallResponse, toolCallResponse}}
	client, _ := newTestClient(t, f, NewBuiltinRegistry(testLogger()), 1)

	reply, err := client.Invoke(context.Background(), []Message{
		{Role: RoleUser, Content: "Keep echoing"},
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if len(f.requests) != 2 {
		t.Errorf("provider called %d times, want 2 (round limit)", len(f.requests))
	}
	if reply.Usage.TotalTokens != 56 {
		t.Errorf("TotalTokens = %d, want 56", reply.Usage.TotalTokens)
	}
}

func TestClient_Invoke_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	cfg := config.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
		Model:   "test-model",
		Timeout: 5 * time.Second,
	}
	client := NewClient(cfg, nil, testLogger())

	_, err := client.Invoke(context.Background(), []Message{{Role: RoleUser, Content: "Hi"}})
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("error = %v, want ErrUpstream", err)
	}
}

func TestClient_Invoke_NoChoices(t *testing.T) {
	f := &fakeProvider{t: t, responses: []string{`{"id": "chatcmpl-3", "object": "chat.completion", "choices": []}`}}
	client, _ := newTestClient(t, f, nil, 4)

	_, err := client.Invoke(context.Background(), []Message{{Role: RoleUser, Content: "Hi"}})
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("error = %v, want ErrUpstream", err)
	}
}
