// Package transcript records raw pipeline event streams into SQLite so
// a demo run can be replayed later without a live backend. Transcripts
// are demo artifacts: conversation state itself stays in memory only.
package transcript

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver

	"github.com/qslice/pipedeck/internal/logging"
)

// DB wraps the SQLite connection with migration support.
type DB struct {
	sql *sql.DB
	log *logging.Logger
}

// Open opens (or creates) the transcript database at path and runs
// migrations. Use ":memory:" in tests.
func Open(path string, log *logging.Logger) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA foreign_keys=ON"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	db := &DB{sql: sqlDB, log: log.Sub("transcript")}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	db.log.Debug().Str("path", path).Msg("transcript database opened")
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.sql.Close()
}

func (db *DB) migrate() error {
	if _, err := db.sql.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	for _, m := range migrations {
		var count int
		if err := db.sql.QueryRow(
			"SELECT COUNT(*) FROM schema_migrations WHERE version = ?", m.Version,
		).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		if _, err := db.sql.Exec(m.SQL); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
		}
		if _, err := db.sql.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", m.Version,
		); err != nil {
			return err
		}
		db.log.Debug().Int("version", m.Version).Str("name", m.Name).Msg("migration applied")
	}
	return nil
}

// migration is a single schema change.
type migration struct {
	Version int
	Name    string
	SQL     string
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "create transcripts and events",
		SQL: `
			CREATE TABLE transcripts (
				id         TEXT PRIMARY KEY,
				name       TEXT NOT NULL,
				created_at TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE TABLE transcript_events (
				id            INTEGER PRIMARY KEY AUTOINCREMENT,
				transcript_id TEXT NOT NULL REFERENCES transcripts(id) ON DELETE CASCADE,
				seq           INTEGER NOT NULL,
				type          TEXT NOT NULL,
				data          TEXT NOT NULL,
				arrival_ms    INTEGER NOT NULL
			);

			CREATE INDEX idx_events_transcript ON transcript_events (transcript_id, seq);
		`,
	},
}
