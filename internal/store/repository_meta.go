package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adb3502/liims-sub002/internal/logger"
)

// metaSyncLockKey is the meta row used as the cross-context
// cycle-in-progress marker. Relying on the in-memory syncing flag alone
// would only guard one execution context; a second process (e.g. a
// background trigger) must see the marker through the store.
const metaSyncLockKey = "sync_lock"

// metaRepository is the SQLite-backed implementation of [MetaRepository].
type metaRepository struct {
	*DB
	logger *logger.Logger
}

// NewMetaRepository constructs a [MetaRepository] backed by the provided
// database connection and logger.
func NewMetaRepository(db *DB, logger *logger.Logger) MetaRepository {
	return &metaRepository{
		DB:     db,
		logger: logger,
	}
}

func (m *metaRepository) Get(ctx context.Context, key string) (string, error) {
	log := logger.FromContext(ctx)

	var value string
	err := m.DB.QueryRowContext(ctx, getMetaEntry, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w (key=%s)", ErrMetaNotFound, key)
	}
	if err != nil {
		log.Err(err).
			Str("func", "metaRepository.Get").
			Str("key", key).
			Msg("failed to query meta entry")
		return "", fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return value, nil
}

func (m *metaRepository) Set(ctx context.Context, key, value string) error {
	log := logger.FromContext(ctx)

	if _, err := m.DB.ExecContext(ctx, upsertMetaEntry, key, value); err != nil {
		log.Err(err).
			Str("func", "metaRepository.Set").
			Str("key", key).
			Msg("failed to upsert meta entry")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// AcquireSyncLock claims the cycle-in-progress marker inside a single
// transaction. The marker value is "owner|expiry"; an expired marker is
// treated as abandoned by a crashed context and taken over.
func (m *metaRepository) AcquireSyncLock(ctx context.Context, owner string, ttl time.Duration) error {
	log := logger.FromContext(ctx)

	tx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "metaRepository.AcquireSyncLock").
			Msg("failed to begin lock transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	var value string
	err = tx.QueryRowContext(ctx, getMetaEntry, metaSyncLockKey).Scan(&value)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Err(err).
			Str("func", "metaRepository.AcquireSyncLock").
			Msg("failed to read sync lock marker")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if err == nil {
		holder, expiry, parseOK := parseSyncLock(value)
		if parseOK && holder != owner && time.Now().Before(expiry) {
			return ErrSyncLockHeld
		}
	}

	marker := fmt.Sprintf("%s|%s", owner, time.Now().Add(ttl).UTC().Format(time.RFC3339Nano))
	if _, err = tx.ExecContext(ctx, upsertMetaEntry, metaSyncLockKey, marker); err != nil {
		log.Err(err).
			Str("func", "metaRepository.AcquireSyncLock").
			Str("owner", owner).
			Msg("failed to write sync lock marker")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).
			Str("func", "metaRepository.AcquireSyncLock").
			Msg("failed to commit lock transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return nil
}

// ReleaseSyncLock drops the marker when owner still holds it, inside one
// transaction so a takeover between the read and the delete cannot be
// clobbered. Releasing a lock another context holds is a no-op.
func (m *metaRepository) ReleaseSyncLock(ctx context.Context, owner string) error {
	log := logger.FromContext(ctx)

	tx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "metaRepository.ReleaseSyncLock").
			Msg("failed to begin release transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	var value string
	err = tx.QueryRowContext(ctx, getMetaEntry, metaSyncLockKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		log.Err(err).
			Str("func", "metaRepository.ReleaseSyncLock").
			Msg("failed to read sync lock marker")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	holder, _, parseOK := parseSyncLock(value)
	if parseOK && holder != owner {
		return nil
	}

	if _, err = tx.ExecContext(ctx, deleteMetaEntry, metaSyncLockKey); err != nil {
		log.Err(err).
			Str("func", "metaRepository.ReleaseSyncLock").
			Str("owner", owner).
			Msg("failed to delete sync lock marker")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).
			Str("func", "metaRepository.ReleaseSyncLock").
			Msg("failed to commit release transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return nil
}

func parseSyncLock(value string) (owner string, expiry time.Time, ok bool) {
	parts := strings.SplitN(value, "|", 2)
	if len(parts) != 2 {
		return "", time.Time{}, false
	}

	expiry, err := time.Parse(time.RFC3339Nano, parts[1])
	if err != nil {
		return "", time.Time{}, false
	}

	return parts[0], expiry, true
}
