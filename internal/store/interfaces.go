package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/adb3502/liims-sub002/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// MutationRepository is the durable queue of client-initiated writes. It is
// the single source of truth the sync engine reasons about between cycles.
type MutationRepository interface {
	// Enqueue creates a pending mutation and returns it. It never fails
	// silently: if the store cannot be written the error is surfaced to the
	// caller, with no fallback to volatile memory.
	Enqueue(ctx context.Context, mutationType string, payload json.RawMessage, entityID string) (models.Mutation, error)

	// ListPending returns pending and previously failed mutations in
	// creation order (FIFO), preserving submission order across a reconnect.
	ListPending(ctx context.Context) ([]models.Mutation, error)

	// SetStatus transitions a mutation to the given status. A transition to
	// failed atomically increments retry_count in the same statement.
	SetStatus(ctx context.Context, id string, status models.MutationStatus) error

	// MarkSyncing batch-transitions the given ids to syncing inside one
	// transaction, so a crash mid-cycle is detectable.
	MarkSyncing(ctx context.Context, ids []string) error

	// Remove deletes a mutation after the server confirmed it as applied or
	// skipped.
	Remove(ctx context.Context, id string) error

	// ResetInFlight returns any mutation still marked syncing to pending.
	// Called once on a fresh load, before the engine's first cycle runs.
	ResetInFlight(ctx context.Context) error

	// PurgeTerminal garbage-collects mutations left in a terminal success
	// state by an earlier cycle.
	PurgeTerminal(ctx context.Context) error

	// CountPending returns the number of mutations in the pending status.
	// Failed rows are excluded so background triggers never re-push a
	// rejected mutation on their own.
	CountPending(ctx context.Context) (int, error)

	// SubscribeQueue registers fn to run after every queue change and
	// returns an unsubscribe func.
	SubscribeQueue(fn func()) func()
}

// CacheRepository is the read-through entity cache. Entries are not
// authoritative and carry no automatic expiry.
type CacheRepository interface {
	Get(ctx context.Context, key string) (models.CacheEntry, error)
	Set(ctx context.Context, key, entityType string, data json.RawMessage) error
	GetByType(ctx context.Context, entityType string) ([]models.CacheEntry, error)
	Clear(ctx context.Context) error
}

// MetaRepository stores small singleton key/value pairs and the
// cross-context cycle-in-progress marker.
type MetaRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error

	// AcquireSyncLock claims the cycle-in-progress marker for owner.
	// Returns ErrSyncLockHeld when another live context holds it; a marker
	// older than ttl is treated as abandoned and taken over.
	AcquireSyncLock(ctx context.Context, owner string, ttl time.Duration) error

	// ReleaseSyncLock drops the marker if owner still holds it.
	ReleaseSyncLock(ctx context.Context, owner string) error
}
