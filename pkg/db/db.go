package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const DefaultDBName = "llm-doc-digest.db"

type DB struct {
	*sql.DB
	path string
}

// openDB opens a SQLite database at the given path
func openDB(dbPath string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Two digest runs can finish at the same time; wait for the writer lock
	// instead of failing the insert.
	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 2000"} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			_ = sqlDB.Close() // Close error less important than PRAGMA error
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return sqlDB, nil
}

// DefaultPath is the database file next to the binary.
func DefaultPath() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(execPath), DefaultDBName), nil
}

// Open opens or creates the history database at dbPath, or next to the binary
// when dbPath is empty.
func Open(dbPath string) (*DB, error) {
	if dbPath == "" {
		var err error
		if dbPath, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	sqlDB, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	db := &DB{
		DB:   sqlDB,
		path: dbPath,
	}

	// Auto-initialize schema on first use
	if err := db.ensureSchemaExists(); err != nil {
		_ = db.Close() // Close error less important than schema error
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// schemaTables are the tables a usable history database must have.
var schemaTables = []string{"libraries", "runs"}

// ensureSchemaExists creates whatever part of the schema is missing. A file
// left half-initialised by an interrupted run is completed, not rejected.
func (db *DB) ensureSchemaExists() error {
	missing, err := db.missingTables()
	if err != nil {
		return fmt.Errorf("failed to check schema: %w", err)
	}
	if len(missing) == 0 {
		return nil
	}

	// Every statement in the schema is IF NOT EXISTS, so re-running it only
	// adds what is absent.
	return db.InitSchema()
}

// missingTables lists the schema tables not present in sqlite_master.
func (db *DB) missingTables() ([]string, error) {
	var missing []string
	for _, table := range schemaTables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if errors.Is(err, sql.ErrNoRows) {
			missing = append(missing, table)
			continue
		}
		if err != nil {
			return nil, err
		}
	}
	return missing, nil
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// InitSchema initializes the database schema
func (db *DB) InitSchema() error {
	_, err := db.Exec(schema)
	return err
}
