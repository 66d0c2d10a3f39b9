package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrStoreUnavailable is returned when the local database cannot be
	// opened or written. It is fatal and is never degraded to in-memory
	// state: falling back to volatile storage would silently break the
	// durability guarantee this subsystem exists to provide.
	ErrStoreUnavailable = errors.New("local store unavailable")

	// ErrMutationNotFound is returned when a status update or removal
	// targets a mutation id that does not exist in the queue.
	ErrMutationNotFound = errors.New("mutation was not found")

	// ErrInvalidStatus is returned when a caller attempts to write a status
	// value outside the pending/syncing/synced/failed enum.
	ErrInvalidStatus = errors.New("invalid mutation status")

	// ErrCacheEntryNotFound is returned when a cache lookup matches no row.
	ErrCacheEntryNotFound = errors.New("cache entry was not found")

	// ErrMetaNotFound is returned when a meta lookup matches no row.
	ErrMetaNotFound = errors.New("meta entry was not found")

	// ErrSyncLockHeld is returned when another execution context currently
	// owns the cycle-in-progress marker.
	ErrSyncLockHeld = errors.New("sync cycle lock is held by another context")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a read-only query against
	// the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open
	// transaction fails. The transaction is considered rolled back.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrScanningRow is returned when scanning column values from a result
	// row fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when scanning fails during multi-row
	// iteration, typically mid-result-set.
	ErrScanningRows = errors.New("failed to scan rows")
)
