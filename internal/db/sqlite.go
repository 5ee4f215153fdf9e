package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens the statistics database at path, creating the file, its
// directory and the schema as needed.
func OpenSQLite(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serialises writers.
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	schema := []string{
		`CREATE TABLE IF NOT EXISTS batch_summaries (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			games INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_batch_summaries_created_at ON batch_summaries(created_at)`,
	}
	for _, q := range schema {
		if _, err := conn.Exec(q); err != nil {
			conn.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return conn, nil
}
