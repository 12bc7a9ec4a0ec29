package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "floor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestInsertAndRecentNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := store.Insert(ctx, KindTradingDecision, map[string]any{"n": i})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	records, err := store.Recent(ctx, KindTradingDecision, 10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	// ULIDs are monotonic within a millisecond tick thanks to the ordering
	// by created_at then id, so the last insert comes back first.
	assert.Equal(t, ids[2], records[0].ID)
	assert.Equal(t, float64(2), records[0].Payload["n"])
}

func TestRecentRespectsLimitAndKind(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.Insert(ctx, KindTradingDecision, map[string]any{"n": i})
		require.NoError(t, err)
	}
	_, err := store.Insert(ctx, KindAnalysisResult, map[string]any{"rsi": 58})
	require.NoError(t, err)

	trading, err := store.Recent(ctx, KindTradingDecision, 2)
	require.NoError(t, err)
	assert.Len(t, trading, 2)

	analysis, err := store.Recent(ctx, KindAnalysisResult, 10)
	require.NoError(t, err)
	require.Len(t, analysis, 1)
	assert.Equal(t, float64(58), analysis[0].Payload["rsi"])
}

func TestConcurrentInsertsYieldUniqueIDs(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	const workers = 8
	ids := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := store.Insert(ctx, KindTradingDecision, map[string]any{})
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate ulid %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers)
}

func TestGetMissingRecord(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get(context.Background(), "01J00000000000000000000000")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStats(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := store.Insert(ctx, KindTradingDecision, map[string]any{})
		require.NoError(t, err)
	}
	_, err := store.Insert(ctx, KindAnalysisResult, map[string]any{})
	require.NoError(t, err)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats[KindTradingDecision])
	assert.Equal(t, 1, stats[KindAnalysisResult])
}
