package sqlite

import (
	"database/sql"
	"fmt"
)

// migration represents a single database migration
type migration struct {
	version int
	name    string
	up      string
}

// migrations is the ordered list of all database migrations.
// Versions are never renumbered; new schema changes are appended.
var migrations = []migration{
	{
		version: 1,
		name:    "create_posts_table",
		up: `
			CREATE TABLE IF NOT EXISTS posts (
				id TEXT PRIMARY KEY,
				path TEXT NOT NULL DEFAULT '',
				title TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				pub_date TEXT NOT NULL DEFAULT '',
				tags TEXT NOT NULL DEFAULT '[]',
				draft INTEGER NOT NULL DEFAULT 1,
				body TEXT NOT NULL DEFAULT '',
				extra TEXT NOT NULL DEFAULT '[]',
				version TEXT NOT NULL DEFAULT '',
				updated_at TIMESTAMP,
				created_at TIMESTAMP NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_posts_pub_date
			ON posts(pub_date DESC)
			WHERE draft = 0;

			CREATE INDEX IF NOT EXISTS idx_posts_path
			ON posts(path)
			WHERE path <> '';
		`,
	},
	{
		version: 2,
		name:    "create_images_table",
		up: `
			CREATE TABLE IF NOT EXISTS images (
				path TEXT PRIMARY KEY,
				hash TEXT NOT NULL,
				updated_at TIMESTAMP,
				created_at TIMESTAMP NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_images_updated_at
			ON images(updated_at DESC);
		`,
	},
	{
		version: 3,
		name:    "create_sessions_table",
		up: `
			CREATE TABLE IF NOT EXISTS sessions (
				id TEXT PRIMARY KEY,
				token TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL,
				expires_at TIMESTAMP NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_sessions_expires_at
			ON sessions(expires_at);
		`,
	},
}

// runMigrations executes all pending migrations
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	currentVersion := 0
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", m.version, err)
		}

		_, err = tx.Exec(m.up)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d (%s): %w", m.version, m.name, err)
		}

		_, err = tx.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			m.version,
			m.name,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}
	}

	return nil
}
