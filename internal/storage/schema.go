package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate applies the schema. All statements are idempotent so this is safe
// to run on every open.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		// App state lives in versioned JSON documents, one row per store
		// ("tasks", "progress", "settings", "calendar", "chat"). Raw bytes
		// are kept as-is so export/import round-trips byte-identically.
		`CREATE TABLE IF NOT EXISTS documents (
			name TEXT PRIMARY KEY,
			version INTEGER NOT NULL DEFAULT 1,
			data BLOB NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
