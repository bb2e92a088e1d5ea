// Package store provides SQLite access to received pager messages.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"

	"github.com/pokesag/pokesag/internal/query"
)

//go:embed schema.sql schema_fts.sql
var schemaFS embed.FS

// Store reads and writes the pages table.
type Store struct {
	db            *sql.DB
	dbPath        string
	fts5Available bool
}

const defaultSQLiteParams = "?_journal_mode=WAL&_busy_timeout=5000"

// driverName is go-sqlite3 with the query.FoldFunc function installed on
// every connection.
const driverName = "sqlite3_pokesag"

var registerDriver sync.Once

func registerFoldDriver() {
	registerDriver.Do(func() {
		sql.Register(driverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc(query.FoldFunc, query.Fold, true)
			},
		})
	})
}

// isSQLiteError checks if err is a sqlite3.Error with a message containing
// substr. Handles both value and pointer forms of the driver error.
func isSQLiteError(err error, substr string) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return strings.Contains(sqliteErr.Error(), substr)
	}
	var sqliteErrPtr *sqlite3.Error
	if errors.As(err, &sqliteErrPtr) && sqliteErrPtr != nil {
		return strings.Contains(sqliteErrPtr.Error(), substr)
	}
	return false
}

// Open opens or creates the database at dbPath. Server URLs are rejected;
// use the remote client for those.
func Open(dbPath string) (*Store, error) {
	if strings.HasPrefix(dbPath, "http://") || strings.HasPrefix(dbPath, "https://") {
		return nil, fmt.Errorf("%s is a server URL, not a database path", dbPath)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	registerFoldDriver()
	db, err := sql.Open(driverName, dbPath+defaultSQLiteParams)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db, dbPath: dbPath}
	s.fts5Available = s.hasFTSTable(context.Background())
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// FTS5Available reports whether the pages_fts index exists.
func (s *Store) FTS5Available() bool {
	return s.fts5Available
}

// InitSchema creates the pages table and, when SQLite has FTS5, the
// full-text index. A build without FTS5 is not an error; full-text search
// then falls back to LIKE.
func (s *Store) InitSchema() error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("read schema.sql: %w", err)
	}
	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("execute schema.sql: %w", err)
	}

	ftsSchema, err := schemaFS.ReadFile("schema_fts.sql")
	if err != nil {
		return fmt.Errorf("read schema_fts.sql: %w", err)
	}
	if _, err := s.db.Exec(string(ftsSchema)); err != nil {
		if !isSQLiteError(err, "no such module: fts5") {
			return fmt.Errorf("init fts5 schema: %w", err)
		}
		s.fts5Available = false
		return nil
	}
	s.fts5Available = true
	return nil
}

// RebuildFTS repopulates pages_fts from the pages table, for databases that
// were filled before the index existed.
func (s *Store) RebuildFTS(ctx context.Context) error {
	if !s.fts5Available {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO pages_fts(pages_fts) VALUES ('rebuild')`); err != nil {
		return fmt.Errorf("rebuild fts: %w", err)
	}
	return nil
}

func (s *Store) hasFTSTable(ctx context.Context) bool {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='pages_fts'
	`).Scan(&count)
	return err == nil && count > 0
}

// withTx runs fn in a transaction, rolling back if it returns an error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Stats summarizes the database.
type Stats struct {
	PageCount      int64 `json:"page_count"`
	RecipientCount int64 `json:"recipient_count"`
	SourceCount    int64 `json:"source_count"`
	DatabaseSize   int64 `json:"database_size"`
	FullText       bool  `json:"full_text"`
}

// GetStats returns counts over the pages table.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{FullText: s.fts5Available}

	queries := []struct {
		query string
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM pages", &stats.PageCount},
		{"SELECT COUNT(DISTINCT recipient) FROM pages", &stats.RecipientCount},
		{"SELECT COUNT(DISTINCT source) FROM pages", &stats.SourceCount},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			if isSQLiteError(err, "no such table") {
				continue
			}
			return nil, fmt.Errorf("get stats %q: %w", q.query, err)
		}
	}

	if info, err := os.Stat(s.dbPath); err == nil {
		stats.DatabaseSize = info.Size()
	}
	return stats, nil
}
