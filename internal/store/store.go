package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite record of dumps produced over time.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  language        TEXT NOT NULL,
  hash            TEXT,
  line_count      INTEGER,
  last_dumped     TIMESTAMP
);

CREATE TABLE IF NOT EXISTS dumps (
  id              TEXT PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id),
  source_hash     TEXT NOT NULL,
  format          TEXT NOT NULL,
  start_line      INTEGER,
  end_line        INTEGER,
  node_count      INTEGER NOT NULL,
  error_count     INTEGER NOT NULL,
  dump_hash       TEXT NOT NULL,
  created_at      TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS dump_nodes (
  dump_id         TEXT NOT NULL REFERENCES dumps(id) ON DELETE CASCADE,
  ordinal         INTEGER NOT NULL,
  depth           INTEGER NOT NULL,
  kind            TEXT NOT NULL,
  named           BOOLEAN NOT NULL,
  field           TEXT,
  start_byte      INTEGER NOT NULL,
  end_byte        INTEGER NOT NULL,
  start_row       INTEGER NOT NULL,
  start_col       INTEGER NOT NULL,
  end_row         INTEGER NOT NULL,
  end_col         INTEGER NOT NULL,
  leaf            BOOLEAN NOT NULL,
  text            TEXT,
  has_error       BOOLEAN DEFAULT FALSE,
  missing         BOOLEAN DEFAULT FALSE,
  PRIMARY KEY (dump_id, ordinal)
);

CREATE INDEX IF NOT EXISTS idx_dumps_file ON dumps(file_id);
CREATE INDEX IF NOT EXISTS idx_dump_nodes_kind ON dump_nodes(kind);
`
