// Package duckdb stores resolution results in DuckDB, one row per gene and
// perspective, and keeps a gob cache of the parsed BioMart catalog.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS canonical_transcripts (
		hgnc_symbol VARCHAR,
		perspective VARCHAR,
		perspective_rank BIGINT,
		transcript_id VARCHAR,
		transcript_version VARCHAR,
		explanation VARCHAR,
		state VARCHAR,
		ensembl_canonical_gene VARCHAR,
		PRIMARY KEY (hgnc_symbol, perspective)
	)`,
	`CREATE INDEX IF NOT EXISTS canonical_transcripts_transcript_id
		ON canonical_transcripts (transcript_id)`,
}

// Store is a DuckDB database of canonical transcript results.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path, creating parent directories.
// An empty path opens an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
