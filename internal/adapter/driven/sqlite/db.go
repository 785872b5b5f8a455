// Package sqlite implements the ReportStore port on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// filePragmas apply to every connection of an on-disk database.
var filePragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"foreign_keys(ON)",
	"cache_size(-64000)",
}

const (
	writerConns = 1 // A single writer avoids "database is locked" under WAL.
	readerConns = 2
)

// DB pairs a single-connection writer pool with a small reader pool over the
// same history database file.
type DB struct {
	Writer *sql.DB
	Reader *sql.DB
	path   string
}

// NewDB opens the history database at dbPath, creating its parent directory
// when missing. Both pools are pinged before NewDB returns.
func NewDB(ctx context.Context, dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := buildDSN(dbPath, filePragmas)

	writer, err := openPool(ctx, "writer", dsn, writerConns)
	if err != nil {
		return nil, err
	}
	reader, err := openPool(ctx, "reader", dsn, readerConns)
	if err != nil {
		_ = writer.Close()
		return nil, err
	}

	return &DB{Writer: writer, Reader: reader, path: dbPath}, nil
}

// buildDSN renders a modernc file: DSN carrying one _pragma parameter per entry.
func buildDSN(path string, pragmas []string) string {
	params := make([]string, 0, len(pragmas))
	for _, p := range pragmas {
		params = append(params, "_pragma="+url.QueryEscape(p))
	}
	return "file:" + path + "?" + strings.Join(params, "&")
}

func openPool(ctx context.Context, role, dsn string, maxOpen int) (*sql.DB, error) {
	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", role, err)
	}
	pool.SetMaxOpenConns(maxOpen)

	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping %s: %w", role, err)
	}
	return pool, nil
}

// Path returns the file path the database was opened with.
func (db *DB) Path() string {
	return db.path
}

// Close closes the reader pool, then the writer. The first error wins.
func (db *DB) Close() error {
	readErr := db.Reader.Close()
	writeErr := db.Writer.Close()

	switch {
	case readErr != nil:
		return fmt.Errorf("close reader: %w", readErr)
	case writeErr != nil:
		return fmt.Errorf("close writer: %w", writeErr)
	}
	return nil
}
