// Package store persists the text index in SQLite so it can be queried
// without loading the whole JSON asset.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/f4ah6o/docsearch-go/internal/search"
)

// DB wraps a sql.DB holding the records table.
type DB struct {
	*sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS records (
    id   INTEGER PRIMARY KEY AUTOINCREMENT,
    file TEXT NOT NULL,
    line INTEGER NOT NULL,
    text TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_file ON records(file);
`

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return d, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing).
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	// Each connection to :memory: is its own database.
	sqlDB.SetMaxOpenConns(1)

	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return d, nil
}

func (d *DB) migrate() error {
	_, err := d.Exec(schema)
	return err
}

// Replace swaps the stored records for records in one transaction,
// preserving their order.
func (d *DB) Replace(ctx context.Context, records []search.TextRecord) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("clearing records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name = 'records'`); err != nil {
		return fmt.Errorf("resetting record ids: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records (file, line, text) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.File, r.Line, r.Text); err != nil {
			return fmt.Errorf("inserting record %s:%d: %w", r.File, r.Line, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing records: %w", err)
	}
	return nil
}

// Load returns every record in insertion order.
func (d *DB) Load(ctx context.Context) ([]search.TextRecord, error) {
	return d.query(ctx, `SELECT file, line, text FROM records ORDER BY id`)
}

// Search returns up to limit records whose text contains query, in
// insertion order. An empty query matches nothing.
func (d *DB) Search(ctx context.Context, query string, limit int) ([]search.TextRecord, error) {
	if query == "" {
		return []search.TextRecord{}, nil
	}
	if limit <= 0 {
		limit = search.DefaultMaxResults
	}
	return d.query(ctx, `SELECT file, line, text FROM records WHERE instr(text, ?) > 0 ORDER BY id LIMIT ?`, query, limit)
}

// Count returns the number of stored records.
func (d *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := d.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

func (d *DB) query(ctx context.Context, q string, args ...any) ([]search.TextRecord, error) {
	rows, err := d.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	records := []search.TextRecord{}
	for rows.Next() {
		var r search.TextRecord
		if err := rows.Scan(&r.File, &r.Line, &r.Text); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
