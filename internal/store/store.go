// Package store is the single source of truth for the ledger: an append-only
// transaction log plus instrument and account metadata, persisted in a local
// SQLite file. Appends are serialized behind a mutex and committed in one
// database transaction; readers always observe a committed snapshot.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	_ "github.com/glebarez/go-sqlite"

	"github.com/folio-dev/folio/internal/schema"
)

// CreatePolicy controls how an append treats account and instrument
// references that do not exist yet.
type CreatePolicy int

const (
	// CreateMissing creates accounts and instruments on first reference.
	CreateMissing CreatePolicy = iota
	// RejectMissing rejects transactions referencing unknown entities.
	RejectMissing
)

// Store is a handle on one ledger database. A Store owns its file
// exclusively for writes; pass the handle explicitly, never share a global.
type Store struct {
	db     *sql.DB
	path   string
	policy CreatePolicy

	mu sync.Mutex // serializes validate+commit on append
}

const ddl = `
CREATE TABLE meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE instrument (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	currency TEXT NOT NULL
);
CREATE TABLE account (
	id       TEXT PRIMARY KEY,
	broker   TEXT NOT NULL,
	currency TEXT NOT NULL
);
CREATE TABLE tx (
	id            TEXT PRIMARY KEY,
	seq           INTEGER NOT NULL UNIQUE,
	account_id    TEXT NOT NULL REFERENCES account(id),
	instrument_id TEXT NOT NULL REFERENCES instrument(id),
	side          TEXT NOT NULL,
	quantity      TEXT NOT NULL,
	unit_price    TEXT NOT NULL,
	currency      TEXT NOT NULL,
	fee           TEXT NOT NULL,
	ts            TEXT NOT NULL
);
CREATE INDEX tx_scan_order ON tx(ts, seq);
`

// Create initialises a new ledger database at path. It fails if the file
// already exists.
func Create(path string, policy CreatePolicy) (*Store, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("ledger %s already exists", path)
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		os.Remove(path)
		return nil, &StorageError{Op: "create schema", Err: err}
	}
	if _, err := db.Exec(`INSERT INTO meta (key, value) VALUES ('schema_version', ?), ('revision', '0')`,
		fmt.Sprint(schema.Version)); err != nil {
		db.Close()
		os.Remove(path)
		return nil, &StorageError{Op: "write schema version", Err: err}
	}

	return &Store{db: db, path: path, policy: policy}, nil
}

// Open opens an existing ledger database and verifies its schema version.
func Open(path string, policy CreatePolicy) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	var version string
	err = db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version)
	if err != nil {
		db.Close()
		return nil, &StorageError{Op: "read schema version", Err: err}
	}
	if version != fmt.Sprint(schema.Version) {
		db.Close()
		return nil, fmt.Errorf("ledger %s has schema version %s, want %d", path, version, schema.Version)
	}

	return &Store{db: db, path: path, policy: policy}, nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StorageError{Op: "open database", Err: err}
	}

	// WAL keeps readers unblocked while an append commits.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, &StorageError{Op: "set pragma", Err: err}
		}
	}
	return db, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
