// ABOUTME: Tests for the tool registry and builtin tools
// ABOUTME: Covers registration rules, execution, and argument parsing

package agent

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry(testLogger())

	tool := Tool{
		Name: "noop",
		Run: func(ctx context.Context, args json.RawMessage) (string, error) {
			return "", nil
		},
	}
	if err := r.Register(tool); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}

	if err := r.Register(tool); err == nil {
		t.Error("expected error registering duplicate name")
	}
	if err := r.Register(Tool{Name: "", Run: tool.Run}); err == nil {
		t.Error("expected error registering unnamed tool")
	}
	if err := r.Register(Tool{Name: "norun"}); err == nil {
		t.Error("expected error registering tool without Run")
	}
}

func TestRegistry_ListPreservesOrder(t *testing.T) {
	r := NewRegistry(testLogger())
	run := func(ctx context.Context, args json.RawMessage) (string, error) { return "", nil }

	for _, name := range []string{"zulu", "alpha", "mike"} {
		if err := r.Register(Tool{Name: name, Run: run}); err != nil {
			t.Fatalf("Register(%s) failed: %v", name, err)
		}
	}

	var got []string
	for _, tool := range r.List() {
		got = append(got, tool.Name)
	}
	want := []string{"zulu", "alpha", "mike"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("List order = %v, want %v", got, want)
		}
	}
}

func TestRegistry_Execute(t *testing.T) {
	r := NewRegistry(testLogger())
	err := r.Register(Tool{
		Name: "shout",
		Run: func(ctx context.Context, args json.RawMessage) (string, error) {
			var in struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}
			return strings.ToUpper(in.Text), nil
		},
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	out, err := r.Execute(context.Background(), "shout", json.RawMessage(`{"text":"hi"}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "HI" {
		t.Errorf("Execute = %q, want %q", out, "HI")
	}

	if _, err := r.Execute(context.Background(), "missing", nil); err == nil {
		t.Error("expected error for unknown tool")
	}
}

func TestBuiltins_Echo(t *testing.T) {
	r := NewBuiltinRegistry(testLogger())

	out, err := r.Execute(context.Background(), "echo", json.RawMessage(`{"message":"hello there"}`))
	if err != nil {
		t.Fatalf("echo failed: %v", err)
	}
	if out != "Echo: hello there" {
		t.Errorf("echo = %q, want %q", out, "Echo: hello there")
	}

	if _, err := r.Execute(context.Background(), "echo", json.RawMessage(`not json`)); err == nil {
		t.Error("expected error for malformed arguments")
	}
}

func TestBuiltins_CurrentTime(t *testing.T) {
	r := NewBuiltinRegistry(testLogger())

	out, err := r.Execute(context.Background(), "current_time", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("current_time failed: %v", err)
	}
	if _, err := time.Parse("2006-01-02 15:04:05", out); err != nil {
		t.Errorf("current_time output %q not in expected format: %v", out, err)
	}
}
