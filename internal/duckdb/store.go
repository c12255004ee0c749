// Package duckdb caches computed site annotations in DuckDB.
// Results are append-only and queryable by site or by INFO key.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for caching site results.
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
			return nil, fmt.Errorf("create cache directory: %w", err)
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

// Path returns the database path ("" for in-memory).
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS site_annotations (
			chrom VARCHAR,
			pos BIGINT,
			ref VARCHAR,
			alt VARCHAR,
			key VARCHAR,
			value DOUBLE,
			PRIMARY KEY (chrom, pos, ref, alt, key)
		)`,
		// Appender target; rows are merged into site_annotations on flush.
		`CREATE TABLE IF NOT EXISTS site_annotations_staging (
			chrom VARCHAR,
			pos BIGINT,
			ref VARCHAR,
			alt VARCHAR,
			key VARCHAR,
			value DOUBLE
		)`,
		`CREATE TABLE IF NOT EXISTS annotation_sources (
			path VARCHAR PRIMARY KEY,
			size BIGINT,
			mod_time TIMESTAMP,
			sites BIGINT,
			failed BIGINT,
			recorded_at TIMESTAMP
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
