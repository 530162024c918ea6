// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides completion usage persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// ":memory:" has no parent directory to create
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Each pooled connection would get its own in-memory database,
	// so pin the pool to a single connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS completions (
			id                TEXT PRIMARY KEY,
			model             TEXT NOT NULL,
			prompt_tokens     INTEGER NOT NULL DEFAULT 0,
			completion_tokens INTEGER NOT NULL DEFAULT 0,
			total_tokens      INTEGER NOT NULL DEFAULT 0,
			status            TEXT NOT NULL,
			latency_ms        INTEGER NOT NULL DEFAULT 0,
			created_at        TEXT NOT NULL,

			CHECK (status IN ('ok', 'upstream'))
		);

		CREATE INDEX IF NOT EXISTS idx_completions_created
			ON completions(created_at);

		CREATE INDEX IF NOT EXISTS idx_completions_model
			ON completions(model);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// SaveCompletion records one completion request's accounting facts.
func (s *SQLiteStore) SaveCompletion(ctx context.Context, rec *CompletionRecord) error {
	query := `
		INSERT INTO completions (
			id, model, prompt_tokens, completion_tokens, total_tokens,
			status, latency_ms, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.Model,
		rec.PromptTokens,
		rec.CompletionTokens,
		rec.TotalTokens,
		rec.Status,
		rec.LatencyMS,
		rec.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting completion: %w", err)
	}

	s.logger.Debug("saved completion record",
		"id", rec.ID,
		"model", rec.Model,
		"status", rec.Status,
		"total_tokens", rec.TotalTokens,
	)
	return nil
}

// ListCompletions returns the most recent records, newest first.
func (s *SQLiteStore) ListCompletions(ctx context.Context, limit int) ([]*CompletionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, model, prompt_tokens, completion_tokens, total_tokens,
		       status, latency_ms, created_at
		FROM completions
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying completions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*CompletionRecord
	for rows.Next() {
		rec, err := scanCompletion(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating completion rows: %w", err)
	}

	return records, nil
}

// GetUsageStats returns aggregated usage statistics with optional filters.
func (s *SQLiteStore) GetUsageStats(ctx context.Context, filter UsageFilter) (*UsageStats, error) {
	query := `
		SELECT
			COALESCE(SUM(prompt_tokens), 0) as total_prompt,
			COALESCE(SUM(completion_tokens), 0) as total_completion,
			COALESCE(SUM(total_tokens), 0) as total_tokens,
			COUNT(*) as request_count,
			COALESCE(SUM(CASE WHEN status != 'ok' THEN 1 ELSE 0 END), 0) as error_count
		FROM completions
		WHERE 1=1
	`
	args := []any{}

	if filter.Model != nil {
		query += " AND model = ?"
		args = append(args, *filter.Model)
	}
	if filter.Status != nil {
		query += " AND status = ?"
		args = append(args, *filter.Status)
	}
	if filter.Since != nil {
		query += " AND created_at >= ?"
		args = append(args, filter.Since.UTC().Format(time.RFC3339))
	}
	if filter.Until != nil {
		query += " AND created_at < ?"
		args = append(args, filter.Until.UTC().Format(time.RFC3339))
	}

	var stats UsageStats
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalPrompt,
		&stats.TotalCompletion,
		&stats.TotalTokens,
		&stats.RequestCount,
		&stats.ErrorCount,
	)
	if err != nil {
		return nil, fmt.Errorf("querying usage stats: %w", err)
	}

	return &stats, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanCompletion scans a single row into a CompletionRecord.
func scanCompletion(rows *sql.Rows) (*CompletionRecord, error) {
	var rec CompletionRecord
	var createdAtStr string

	err := rows.Scan(
		&rec.ID,
		&rec.Model,
		&rec.PromptTokens,
		&rec.CompletionTokens,
		&rec.TotalTokens,
		&rec.Status,
		&rec.LatencyMS,
		&createdAtStr,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning completion row: %w", err)
	}

	rec.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &rec, nil
}

// Ensure SQLiteStore implements the Store interface.
var _ Store = (*SQLiteStore)(nil)
