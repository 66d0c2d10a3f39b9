package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adb3502/liims-sub002/internal/logger"
	"github.com/adb3502/liims-sub002/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	conn, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// the pool must not open a second connection: every :memory: connection
	// is a separate empty database
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	db := &DB{DB: conn, logger: logger.Nop()}
	require.NoError(t, db.Migrate())

	return db
}

func newTestMutationRepo(t *testing.T) MutationRepository {
	t.Helper()
	return NewMutationRepository(newTestDB(t), logger.Nop())
}

func enqueueN(t *testing.T, repo MutationRepository, n int) []models.Mutation {
	t.Helper()

	ctx := context.Background()
	out := make([]models.Mutation, 0, n)
	for i := 0; i < n; i++ {
		m, err := repo.Enqueue(ctx, "sample.register", json.RawMessage(fmt.Sprintf(`{"seq":%d}`, i)), fmt.Sprintf("sample-%d", i))
		require.NoError(t, err)
		out = append(out, m)
	}
	return out
}

func TestMutationRepository_Enqueue_CreatesPending(t *testing.T) {
	repo := newTestMutationRepo(t)
	ctx := context.Background()

	m, err := repo.Enqueue(ctx, "sample.register", json.RawMessage(`{"barcode":"B-1"}`), "sample-1")
	require.NoError(t, err)

	assert.NotEmpty(t, m.ID)
	assert.Equal(t, models.MutationPending, m.Status)
	assert.Equal(t, 0, m.RetryCount)

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, m.ID, pending[0].ID)
	assert.JSONEq(t, `{"barcode":"B-1"}`, string(pending[0].Payload))
}

func TestMutationRepository_Enqueue_RejectsEmptyType(t *testing.T) {
	repo := newTestMutationRepo(t)

	_, err := repo.Enqueue(context.Background(), "", nil, "")
	require.Error(t, err)
}

func TestMutationRepository_ListPending_FIFO(t *testing.T) {
	repo := newTestMutationRepo(t)
	created := enqueueN(t, repo, 5)

	pending, err := repo.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 5)

	for i, m := range pending {
		assert.Equal(t, created[i].ID, m.ID, "submission order must match creation order")
	}
}

func TestMutationRepository_ListPending_IncludesFailed(t *testing.T) {
	repo := newTestMutationRepo(t)
	created := enqueueN(t, repo, 2)
	ctx := context.Background()

	require.NoError(t, repo.SetStatus(ctx, created[0].ID, models.MutationFailed))

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, models.MutationFailed, pending[0].Status)
	assert.Equal(t, models.MutationPending, pending[1].Status)
}

func TestMutationRepository_SetStatus_FailedIncrementsRetryCount(t *testing.T) {
	repo := newTestMutationRepo(t)
	created := enqueueN(t, repo, 1)
	ctx := context.Background()

	require.NoError(t, repo.SetStatus(ctx, created[0].ID, models.MutationFailed))
	require.NoError(t, repo.SetStatus(ctx, created[0].ID, models.MutationFailed))

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].RetryCount, "each rejection must increment retry_count by exactly 1")
}

func TestMutationRepository_SetStatus_NonFailedKeepsRetryCount(t *testing.T) {
	repo := newTestMutationRepo(t)
	created := enqueueN(t, repo, 1)
	ctx := context.Background()

	require.NoError(t, repo.SetStatus(ctx, created[0].ID, models.MutationFailed))
	require.NoError(t, repo.SetStatus(ctx, created[0].ID, models.MutationPending))

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].RetryCount)
}

func TestMutationRepository_SetStatus_UnknownID(t *testing.T) {
	repo := newTestMutationRepo(t)

	err := repo.SetStatus(context.Background(), "no-such-id", models.MutationFailed)
	assert.ErrorIs(t, err, ErrMutationNotFound)
}

func TestMutationRepository_SetStatus_InvalidStatus(t *testing.T) {
	repo := newTestMutationRepo(t)
	created := enqueueN(t, repo, 1)

	err := repo.SetStatus(context.Background(), created[0].ID, models.MutationStatus("exploded"))
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestMutationRepository_MarkSyncing_HidesFromPending(t *testing.T) {
	repo := newTestMutationRepo(t)
	created := enqueueN(t, repo, 3)
	ctx := context.Background()

	require.NoError(t, repo.MarkSyncing(ctx, []string{created[0].ID, created[1].ID}))

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, created[2].ID, pending[0].ID)
}

func TestMutationRepository_ResetInFlight_ReturnsSyncingToPending(t *testing.T) {
	repo := newTestMutationRepo(t)
	created := enqueueN(t, repo, 2)
	ctx := context.Background()

	require.NoError(t, repo.MarkSyncing(ctx, []string{created[0].ID, created[1].ID}))
	require.NoError(t, repo.ResetInFlight(ctx))

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2, "a crash mid-cycle must not strand mutations in syncing")
}

func TestMutationRepository_Remove(t *testing.T) {
	repo := newTestMutationRepo(t)
	created := enqueueN(t, repo, 2)
	ctx := context.Background()

	require.NoError(t, repo.Remove(ctx, created[0].ID))

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, created[1].ID, pending[0].ID)
}

func TestMutationRepository_PurgeTerminal_RemovesOnlySynced(t *testing.T) {
	repo := newTestMutationRepo(t)
	created := enqueueN(t, repo, 3)
	ctx := context.Background()

	require.NoError(t, repo.SetStatus(ctx, created[0].ID, models.MutationSynced))
	require.NoError(t, repo.SetStatus(ctx, created[1].ID, models.MutationFailed))
	require.NoError(t, repo.PurgeTerminal(ctx))

	remaining, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 2, "failed and pending rows must survive the purge")
	assert.Equal(t, created[1].ID, remaining[0].ID)
	assert.Equal(t, created[2].ID, remaining[1].ID)
}

func TestMutationRepository_CountPending_ExcludesFailed(t *testing.T) {
	repo := newTestMutationRepo(t)
	created := enqueueN(t, repo, 2)
	ctx := context.Background()

	require.NoError(t, repo.SetStatus(ctx, created[0].ID, models.MutationFailed))

	count, err := repo.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "failed rows wait for an external trigger")
}

func TestMutationRepository_CountPending(t *testing.T) {
	repo := newTestMutationRepo(t)
	created := enqueueN(t, repo, 3)
	ctx := context.Background()

	require.NoError(t, repo.MarkSyncing(ctx, []string{created[0].ID}))

	count, err := repo.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMutationRepository_SubscribeQueue_NotifiesOnChanges(t *testing.T) {
	repo := newTestMutationRepo(t)
	ctx := context.Background()

	var notifications int
	unsubscribe := repo.SubscribeQueue(func() { notifications++ })

	created := enqueueN(t, repo, 1)
	require.NoError(t, repo.SetStatus(ctx, created[0].ID, models.MutationFailed))
	require.NoError(t, repo.Remove(ctx, created[0].ID))

	assert.Equal(t, 3, notifications)

	unsubscribe()
	enqueueN(t, repo, 1)
	assert.Equal(t, 3, notifications, "no notifications after unsubscribe")
}

func TestMutationRepository_Enqueue_StoreUnavailable(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	repo := NewMutationRepository(&DB{DB: conn, logger: logger.Nop()}, logger.Nop())

	mock.ExpectExec("INSERT INTO mutations").
		WillReturnError(errors.New("disk I/O error"))

	_, err = repo.Enqueue(context.Background(), "sample.register", json.RawMessage(`{}`), "")
	assert.ErrorIs(t, err, ErrStoreUnavailable, "a broken store must fail loudly, never degrade to memory")
	assert.NoError(t, mock.ExpectationsWereMet())
}
