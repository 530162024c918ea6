// ABOUTME: Tests for the SQLite completion store
// ABOUTME: Covers SaveCompletion, ListCompletions, GetUsageStats, and schema setup

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func newRecord(model, status string, prompt, completion int) *CompletionRecord {
	return &CompletionRecord{
		ID:               uuid.New().String(),
		Model:            model,
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
		Status:           status,
		LatencyMS:        42,
		CreatedAt:        time.Now().UTC().Truncate(time.Second),
	}
}

func TestStore_SaveCompletion(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	rec := newRecord("pepper-agent", StatusOK, 100, 50)
	require.NoError(t, store.SaveCompletion(ctx, rec))

	records, err := store.ListCompletions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, rec.ID, records[0].ID)
	assert.Equal(t, "pepper-agent", records[0].Model)
	assert.Equal(t, 100, records[0].PromptTokens)
	assert.Equal(t, 50, records[0].CompletionTokens)
	assert.Equal(t, 150, records[0].TotalTokens)
	assert.Equal(t, StatusOK, records[0].Status)
	assert.Equal(t, int64(42), records[0].LatencyMS)
	assert.True(t, rec.CreatedAt.Equal(records[0].CreatedAt))
}

func TestStore_SaveCompletion_RejectsBadStatus(t *testing.T) {
	store := setupTestStore(t)

	rec := newRecord("pepper-agent", "exploded", 1, 1)
	err := store.SaveCompletion(context.Background(), rec)
	assert.Error(t, err)
}

func TestStore_ListCompletions_NewestFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		rec := newRecord("pepper-agent", StatusOK, 10, 10)
		rec.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		rec.PromptTokens = i
		require.NoError(t, store.SaveCompletion(ctx, rec))
	}

	records, err := store.ListCompletions(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2, records[0].PromptTokens)
	assert.Equal(t, 1, records[1].PromptTokens)
}

func TestStore_ListCompletions_Empty(t *testing.T) {
	store := setupTestStore(t)

	records, err := store.ListCompletions(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStore_GetUsageStats_NoFilter(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCompletion(ctx, newRecord("pepper-agent", StatusOK, 100, 50)))
	require.NoError(t, store.SaveCompletion(ctx, newRecord("pepper-agent", StatusOK, 200, 100)))
	require.NoError(t, store.SaveCompletion(ctx, newRecord("pepper-agent", StatusUpstream, 0, 0)))

	stats, err := store.GetUsageStats(ctx, UsageFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(300), stats.TotalPrompt)
	assert.Equal(t, int64(150), stats.TotalCompletion)
	assert.Equal(t, int64(450), stats.TotalTokens)
	assert.Equal(t, int64(3), stats.RequestCount)
	assert.Equal(t, int64(1), stats.ErrorCount)
}

func TestStore_GetUsageStats_FilterByModel(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCompletion(ctx, newRecord("alpha", StatusOK, 100, 50)))
	require.NoError(t, store.SaveCompletion(ctx, newRecord("beta", StatusOK, 999, 999)))

	model := "alpha"
	stats, err := store.GetUsageStats(ctx, UsageFilter{Model: &model})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.RequestCount)
	assert.Equal(t, int64(150), stats.TotalTokens)
}

func TestStore_GetUsageStats_TimeWindow(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := newRecord("pepper-agent", StatusOK, 10, 10)
		rec.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, store.SaveCompletion(ctx, rec))
	}

	since := base.Add(30 * time.Minute)
	until := base.Add(90 * time.Minute)
	stats, err := store.GetUsageStats(ctx, UsageFilter{Since: &since, Until: &until})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.RequestCount)
}

func TestStore_GetUsageStats_EmptyDatabase(t *testing.T) {
	store := setupTestStore(t)

	stats, err := store.GetUsageStats(context.Background(), UsageFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.RequestCount)
	assert.Equal(t, int64(0), stats.TotalTokens)
}

func TestNewSQLiteStore_CreatesParentDirs(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "dir", "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.SaveCompletion(context.Background(), newRecord("pepper-agent", StatusOK, 1, 1)))
}

func TestNewSQLiteStore_InMemory(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.SaveCompletion(context.Background(), newRecord("pepper-agent", StatusOK, 1, 1)))
}
