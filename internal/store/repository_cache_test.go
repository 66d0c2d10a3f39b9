package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adb3502/liims-sub002/internal/logger"
)

func newTestCacheRepo(t *testing.T) CacheRepository {
	t.Helper()
	return NewCacheRepository(newTestDB(t), logger.Nop())
}

func TestCacheRepository_SetGet_Roundtrip(t *testing.T) {
	repo := newTestCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "sample:1", "sample", json.RawMessage(`{"barcode":"B-1"}`)))

	entry, err := repo.Get(ctx, "sample:1")
	require.NoError(t, err)
	assert.Equal(t, "sample:1", entry.Key)
	assert.Equal(t, "sample", entry.EntityType)
	assert.JSONEq(t, `{"barcode":"B-1"}`, string(entry.Data))
	assert.False(t, entry.UpdatedAt.IsZero())
}

func TestCacheRepository_Set_OverwritesExisting(t *testing.T) {
	repo := newTestCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "sample:1", "sample", json.RawMessage(`{"v":1}`)))
	require.NoError(t, repo.Set(ctx, "sample:1", "sample", json.RawMessage(`{"v":2}`)))

	entry, err := repo.Get(ctx, "sample:1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(entry.Data), "next successful read overwrites, no history kept")
}

func TestCacheRepository_Get_Missing(t *testing.T) {
	repo := newTestCacheRepo(t)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCacheEntryNotFound)
}

func TestCacheRepository_GetByType(t *testing.T) {
	repo := newTestCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "sample:1", "sample", json.RawMessage(`{}`)))
	require.NoError(t, repo.Set(ctx, "sample:2", "sample", json.RawMessage(`{}`)))
	require.NoError(t, repo.Set(ctx, "test:1", "test", json.RawMessage(`{}`)))

	entries, err := repo.GetByType(ctx, "sample")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "sample", e.EntityType)
	}
}

func TestCacheRepository_Clear(t *testing.T) {
	repo := newTestCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "sample:1", "sample", json.RawMessage(`{}`)))
	require.NoError(t, repo.Clear(ctx))

	_, err := repo.Get(ctx, "sample:1")
	assert.ErrorIs(t, err, ErrCacheEntryNotFound)
}
