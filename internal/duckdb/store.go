// Package duckdb persists reconciliation evidence in DuckDB for downstream
// reporting: per-sample evidence vectors, per-record reason tallies and the
// input files a report was built from.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for the evidence report.
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
			return nil, fmt.Errorf("create report directory: %w", err)
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
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS variant_summary (
			chrom VARCHAR,
			pos BIGINT,
			ref VARCHAR,
			alt VARCHAR,
			tier VARCHAR,
			qual INTEGER,
			bwa_mq0 INTEGER,
			bowtie_mq0 INTEGER,
			novo_mq0 INTEGER,
			reconstructed INTEGER,
			skipped INTEGER,
			verdict VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS sample_evidence (
			chrom VARCHAR,
			pos BIGINT,
			ref VARCHAR,
			alt VARCHAR,
			category VARCHAR,
			sample VARCHAR,
			aligner VARCHAR,
			var_depth INTEGER,
			normal_var_depth INTEGER,
			base_quality DOUBLE,
			mapping_quality DOUBLE,
			edit_distance DOUBLE,
			mq0 INTEGER,
			poor_reads INTEGER,
			other_reads INTEGER,
			reasons VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS reason_counts (
			chrom VARCHAR,
			pos BIGINT,
			ref VARCHAR,
			alt VARCHAR,
			category VARCHAR,
			reason VARCHAR,
			count INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS input_files (
			role VARCHAR,
			path VARCHAR,
			size BIGINT,
			mod_time TIMESTAMP
		)`,
	} {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
