// Package store implements the durable insight store on SQLite: keyed
// insight rows, one embedding vector per row, and the append-only history
// ledger. Mutations and their ledger entries commit in one transaction.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fyrsmithlabs/insightd/internal/logging"
)

// schema is applied idempotently at open. WAL and the busy timeout are the
// only cross-process safety the engine relies on; it adds no locking of its
// own.
const schema = `
CREATE TABLE IF NOT EXISTS insights (
	id                  TEXT PRIMARY KEY,
	type                TEXT NOT NULL CHECK (type IN ('behavioral','personality','relational','principle','skill','trigger')),
	claim               TEXT NOT NULL CHECK (length(trim(claim)) > 0),
	reasoning           TEXT NOT NULL DEFAULT '',
	context             TEXT NOT NULL DEFAULT '',
	limitations         TEXT NOT NULL DEFAULT '',
	source              TEXT NOT NULL DEFAULT '',
	confidence          REAL NOT NULL CHECK (confidence >= 0.0 AND confidence <= 1.0),
	tags                TEXT NOT NULL DEFAULT '[]',
	reinforcement_count INTEGER NOT NULL DEFAULT 0 CHECK (reinforcement_count >= 0),
	condition           TEXT NOT NULL DEFAULT '',
	avoid               INTEGER NOT NULL DEFAULT 0,
	created_at          TIMESTAMP NOT NULL,
	updated_at          TIMESTAMP NOT NULL,
	last_retrieved_at   TIMESTAMP
);

CREATE TABLE IF NOT EXISTS embeddings (
	insight_id  TEXT PRIMARY KEY REFERENCES insights(id) ON DELETE CASCADE,
	vector      BLOB NOT NULL,
	provider    TEXT NOT NULL,
	model       TEXT NOT NULL,
	dimensions  INTEGER NOT NULL,
	created_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	insight_id  TEXT NOT NULL REFERENCES insights(id) ON DELETE CASCADE,
	field       TEXT NOT NULL,
	old_value   TEXT,
	new_value   TEXT,
	kind        TEXT NOT NULL CHECK (kind IN ('create','update','reinforce','merge')),
	source      TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_insights_type ON insights(type);
CREATE INDEX IF NOT EXISTS idx_history_insight ON history(insight_id, created_at, id);
CREATE INDEX IF NOT EXISTS idx_history_created ON history(created_at);
`

// SQLiteStore is the SQLite-backed implementation of insight.Store.
type SQLiteStore struct {
	db     *sql.DB
	logger *logging.Logger
}

// Open opens (creating if needed) the store at path and applies the schema.
// The caller owns the returned store and must Close it.
func Open(path string, logger *logging.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Single-writer access per logical operation; one connection keeps
	// transactions serialized within the process.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger.Named("store")}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
