// ABOUTME: Store interface and data types for pepper-gateway persistence
// ABOUTME: Defines CompletionRecord, usage stats types and the Store interface

package store

import (
	"context"
	"time"
)

// Completion status constants.
const (
	StatusOK       = "ok"       // Upstream invocation succeeded
	StatusUpstream = "upstream" // Upstream provider returned an error
)

// CompletionRecord captures the accounting facts of a single chat completion
// request. It is written after the response is sent and never read on the
// request path.
type CompletionRecord struct {
	ID               string
	Model            string // model id echoed to the client
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Status           string // "ok" or "upstream"
	LatencyMS        int64
	CreatedAt        time.Time
}

// UsageFilter narrows a stats query. Nil fields mean no constraint.
type UsageFilter struct {
	Model  *string
	Since  *time.Time
	Until  *time.Time
	Status *string
}

// UsageStats is the aggregate view over completion records.
type UsageStats struct {
	TotalPrompt     int64 `json:"total_prompt_tokens"`
	TotalCompletion int64 `json:"total_completion_tokens"`
	TotalTokens     int64 `json:"total_tokens"`
	RequestCount    int64 `json:"request_count"`
	ErrorCount      int64 `json:"error_count"`
}

// Store defines the interface for completion usage persistence
type Store interface {
	// SaveCompletion records one completion request's accounting facts.
	SaveCompletion(ctx context.Context, rec *CompletionRecord) error

	// ListCompletions returns the most recent records, newest first.
	ListCompletions(ctx context.Context, limit int) ([]*CompletionRecord, error)

	// GetUsageStats returns aggregated usage statistics with optional filters.
	GetUsageStats(ctx context.Context, filter UsageFilter) (*UsageStats, error)

	// Close releases any resources held by the store
	Close() error
}
