package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/adb3502/liims-sub002/internal/logger"
	"github.com/adb3502/liims-sub002/models"
)

// cacheRepository is the SQLite-backed implementation of [CacheRepository].
// Entries are read-through snapshots: the next successful read overwrites
// them and nothing expires automatically.
type cacheRepository struct {
	*DB
	logger *logger.Logger
}

// NewCacheRepository constructs a [CacheRepository] backed by the provided
// database connection and logger.
func NewCacheRepository(db *DB, logger *logger.Logger) CacheRepository {
	return &cacheRepository{
		DB:     db,
		logger: logger,
	}
}

func (c *cacheRepository) Get(ctx context.Context, key string) (models.CacheEntry, error) {
	log := logger.FromContext(ctx)

	var entry models.CacheEntry
	var data []byte

	err := c.DB.QueryRowContext(ctx, getCacheEntry, key).Scan(
		&entry.Key,
		&entry.EntityType,
		&data,
		&entry.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CacheEntry{}, fmt.Errorf("%w (key=%s)", ErrCacheEntryNotFound, key)
	}
	if err != nil {
		log.Err(err).
			Str("func", "cacheRepository.Get").
			Str("key", key).
			Msg("failed to query cache entry")
		return models.CacheEntry{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	entry.Data = json.RawMessage(data)
	return entry, nil
}

func (c *cacheRepository) Set(ctx context.Context, key, entityType string, data json.RawMessage) error {
	log := logger.FromContext(ctx)

	_, err := c.DB.ExecContext(ctx, upsertCacheEntry,
		key,
		entityType,
		[]byte(data),
		time.Now().UTC(),
	)
	if err != nil {
		log.Err(err).
			Str("func", "cacheRepository.Set").
			Str("key", key).
			Str("entity_type", entityType).
			Msg("failed to upsert cache entry")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (c *cacheRepository) GetByType(ctx context.Context, entityType string) ([]models.CacheEntry, error) {
	log := logger.FromContext(ctx)

	query, args, err := sq.Select("key", "entity_type", "data", "updated_at").
		From("cache").
		Where(sq.Eq{"entity_type": entityType}).
		OrderBy("updated_at DESC").
		ToSql()
	if err != nil {
		log.Err(err).
			Str("func", "cacheRepository.GetByType").
			Str("entity_type", entityType).
			Msg("failed to build cache query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := c.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "cacheRepository.GetByType").
			Str("entity_type", entityType).
			Msg("failed to query cache entries by type")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var entries []models.CacheEntry

	for rows.Next() {
		var entry models.CacheEntry
		var data []byte

		if scanErr := rows.Scan(&entry.Key, &entry.EntityType, &data, &entry.UpdatedAt); scanErr != nil {
			log.Err(scanErr).
				Str("func", "cacheRepository.GetByType").
				Msg("failed to scan cache entry row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		entry.Data = json.RawMessage(data)
		entries = append(entries, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "cacheRepository.GetByType").
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return entries, nil
}

func (c *cacheRepository) Clear(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if _, err := c.DB.ExecContext(ctx, clearCacheEntries); err != nil {
		log.Err(err).
			Str("func", "cacheRepository.Clear").
			Msg("failed to clear cache")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}
