package store

import (
	"context"
	"fmt"

	"github.com/adb3502/liims-sub002/internal/config"
	"github.com/adb3502/liims-sub002/internal/logger"
)

// Storages groups the client's durable sync repositories into a single value
// that can be passed around the service layer.
type Storages struct {
	// Mutations is the durable queue of client-initiated writes.
	Mutations MutationRepository

	// Cache is the read-through entity cache.
	Cache CacheRepository

	// Meta holds singleton key/value pairs and the cycle-in-progress marker.
	Meta MetaRepository
}

// NewStorages initialises the client storage layer using the supplied
// configuration and logger. It performs the following steps:
//  1. Opens an SQLite connection to the file path in cfg.DB.DSN, creating
//     the database file if it does not yet exist.
//  2. Runs pending schema migrations via [DB.Migrate].
//  3. Resets any mutation left in the syncing state by an interrupted
//     earlier run back to pending, so the engine's first cycle sees it.
//
// Returns an error if the database connection cannot be established or if
// migration fails. There is no in-memory fallback: an unusable store must
// fail loudly.
func NewStorages(cfg config.ClientStorage, logger *logger.Logger) (*Storages, error) {
	logger.Info().Msg("creating new storages...")

	db, err := NewConnectSQLite(context.Background(), cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	mutations := NewMutationRepository(db, logger)
	if err := mutations.ResetInFlight(context.Background()); err != nil {
		return nil, fmt.Errorf("reset in-flight mutations: %w", err)
	}

	return &Storages{
		Mutations: mutations,
		Cache:     NewCacheRepository(db, logger),
		Meta:      NewMetaRepository(db, logger),
	}, nil
}
