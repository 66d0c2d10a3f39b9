package migrations

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestMigrate_CreatesSyncTables(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(db))

	for _, table := range []string{"mutations", "cache", "meta"} {
		var name string
		err := db.QueryRow(
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table,
		).Scan(&name)
		require.NoError(t, err, "table %s must exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_IsIdempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))
}

func TestMigrate_PreservesQueuedMutations(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	_, err := db.Exec(
		`INSERT INTO mutations (id, type, payload, created_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)`,
		"m1", "sample.register", []byte(`{}`),
	)
	require.NoError(t, err)

	// re-running all migrations must not touch existing queue rows
	require.NoError(t, Migrate(db))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM mutations`).Scan(&count))
	assert.Equal(t, 1, count)
}
