// Package duckdb provides an optional persistent store of classification runs.
// Each batch run gets a UUID; its per-record results and the reference tables
// it used are kept in DuckDB for later querying.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for classification results.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create results directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS classification_runs (
			run_id VARCHAR PRIMARY KEY,
			started_at TIMESTAMP,
			input VARCHAR,
			primary_source VARCHAR,
			monitoring_source VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS table_sources (
			run_id VARCHAR,
			role VARCHAR,
			path VARCHAR,
			size BIGINT,
			mod_time TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS classification_results (
			run_id VARCHAR,
			record_id VARCHAR,
			lineage VARCHAR,
			mutations VARCHAR,
			variant VARCHAR,
			classification VARCHAR,
			monitoring VARCHAR
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
