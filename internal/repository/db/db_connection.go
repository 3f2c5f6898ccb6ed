package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens/creates a SQLite DB file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// Conservative pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is not great with many writers
	db.SetMaxIdleConns(1)

	// Pragmas to improve reliability
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA journal_mode=WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA foreign_keys=ON: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA busy_timeout=5000: %w", err)
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Fail fast if the DB cannot be reached
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const sqliteDriverName = "sqlite"

const schemaSnapshots = `
CREATE TABLE IF NOT EXISTS snapshots (
    id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    taken_at TIMESTAMP NOT NULL,
    overall_health TEXT NOT NULL,
    payload TEXT NOT NULL
);
`

const schemaEvents = `
CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    occurred_at TIMESTAMP NOT NULL,
    severity TEXT NOT NULL,
    type TEXT NOT NULL,
    message TEXT NOT NULL,
    details TEXT,
    acknowledged BOOLEAN NOT NULL DEFAULT 0
);
`

const schemaSpeedtests = `
CREATE TABLE IF NOT EXISTS speedtests (
    id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    external_id TEXT,
    taken_at TIMESTAMP,
    download_mbps REAL NOT NULL,
    upload_mbps REAL NOT NULL,
    ping_ms REAL NOT NULL,
    jitter_ms REAL NOT NULL DEFAULT 0,
    server TEXT NOT NULL DEFAULT '',
    UNIQUE (source, external_id)
);
`

const schemaCollectorState = `
CREATE TABLE IF NOT EXISTS collector_state (
    name TEXT PRIMARY KEY,
    consecutive_failures INTEGER NOT NULL,
    penalty_seconds INTEGER NOT NULL,
    last_poll_at TIMESTAMP,
    last_success_at TIMESTAMP
);
`

const (
	indexSnapshotsSourceTaken = `CREATE INDEX IF NOT EXISTS idx_snapshots_source_taken ON snapshots (source, taken_at);`
	indexEventsOccurred       = `CREATE INDEX IF NOT EXISTS idx_events_occurred ON events (occurred_at);`
	indexSpeedtestsTaken      = `CREATE INDEX IF NOT EXISTS idx_speedtests_taken ON speedtests (taken_at);`
)

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		// In case of panic, rollback to avoid leaving an open transaction
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaSnapshots,
		schemaEvents,
		schemaSpeedtests,
		schemaCollectorState,
		indexSnapshotsSourceTaken,
		indexEventsOccurred,
		indexSpeedtestsTaken,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
