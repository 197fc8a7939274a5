// Package ledger remembers which sources were converted with which
// parameters, so unchanged assets can be skipped on the next run.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"assetopt/internal/domain"
)

type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the ledger database at path and ensures its schema.
func Open(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := ensureTable(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure ledger schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func ensureTable(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS conversions (
  source_path text NOT NULL PRIMARY KEY,
  dest_path text NOT NULL,
  source_sha256 text NOT NULL,
  params_hash text NOT NULL,
  updated_at timestamp NOT NULL
);
`
	_, err := db.Exec(ddl)
	return err
}

func (s *SQLiteStore) Lookup(ctx context.Context, sourcePath string) (domain.LedgerEntry, bool, error) {
	var entry domain.LedgerEntry
	err := s.db.QueryRowContext(ctx,
		`SELECT source_path, dest_path, source_sha256, params_hash, updated_at FROM conversions WHERE source_path = ?`,
		sourcePath,
	).Scan(&entry.SourcePath, &entry.DestPath, &entry.SourceHash, &entry.ParamsHash, &entry.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.LedgerEntry{}, false, nil
	}
	if err != nil {
		return domain.LedgerEntry{}, false, err
	}
	return entry, true, nil
}

func (s *SQLiteStore) Record(ctx context.Context, entry domain.LedgerEntry) error {
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO conversions (source_path, dest_path, source_sha256, params_hash, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(source_path) DO UPDATE SET
  dest_path = excluded.dest_path,
  source_sha256 = excluded.source_sha256,
  params_hash = excluded.params_hash,
  updated_at = excluded.updated_at`,
		entry.SourcePath, entry.DestPath, entry.SourceHash, entry.ParamsHash, entry.UpdatedAt,
	)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
