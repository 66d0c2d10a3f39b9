// Package migrations embeds the versioned SQLite schema for the client's
// durable sync store and applies it with goose.
//
// Migrations are append-only: a new version may add tables, columns, or
// indexes, but must never drop or rewrite the mutations table, so a schema
// upgrade can never lose queued writes.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var embedMigrations embed.FS

// Migrate applies all pending schema migrations to db.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("migration error setting dialect for db: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}
