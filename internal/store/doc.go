// Package store provides persistent usage accounting for the gateway using SQLite.
//
// # Architecture
//
// The package exposes a single Store interface implemented by SQLiteStore
// (modernc.org/sqlite, pure Go, no cgo). The database runs in WAL mode and
// the schema is created automatically on startup.
//
// The store is deliberately off the request path: chat completions never read
// from it, and writes happen after the response is sent. A write failure is
// logged and otherwise ignored, so losing the database never breaks chat.
//
// # Data Model
//
//   - CompletionRecord: One row per chat completion request with the model id,
//     token counts, outcome status ("ok" or "upstream"), and latency.
//
// # Queries
//
//   - SaveCompletion: Insert one record
//   - ListCompletions: Recent records, newest first
//   - GetUsageStats: Aggregate token totals and request/error counts,
//     optionally filtered by model, status, or time window
//
// Timestamps are stored as RFC 3339 UTC strings, which sort correctly as text.
package store
