package sheet

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const rowColumns = `series_id, title, season, episode, quality, audio, url, added_at, status`

// SQLiteTable stores rows in a single SQLite table.
type SQLiteTable struct {
	db   *sql.DB
	path string
}

// OpenSQLite initializes or connects to the catalog database at path.
func OpenSQLite(path string) (*SQLiteTable, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	table := &SQLiteTable{db: db, path: path}
	if err := table.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return table, nil
}

// Path returns the database file location.
func (t *SQLiteTable) Path() string {
	return t.path
}

// Close closes the underlying database connection.
func (t *SQLiteTable) Close() error {
	if t == nil || t.db == nil {
		return nil
	}
	return t.db.Close()
}

// ReadAll returns every row ordered by insertion.
func (t *SQLiteTable) ReadAll(ctx context.Context) ([]Row, error) {
	var rows []Row
	err := retryOnBusy(ctx, func() error {
		rows = rows[:0]
		result, err := t.db.QueryContext(ctx, `SELECT `+rowColumns+` FROM catalog_rows ORDER BY id`)
		if err != nil {
			return err
		}
		defer result.Close()
		for result.Next() {
			var row Row
			if err := result.Scan(
				&row.SeriesID, &row.Title, &row.Season, &row.Episode,
				&row.Quality, &row.Audio, &row.URL, &row.AddedAt, &row.Status,
			); err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return result.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return rows, nil
}

// Append inserts row after every existing row.
func (t *SQLiteTable) Append(ctx context.Context, row Row) error {
	err := retryOnBusy(ctx, func() error {
		_, err := t.db.ExecContext(
			ctx,
			`INSERT INTO catalog_rows (`+rowColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			row.SeriesID, row.Title, row.Season, row.Episode,
			row.Quality, row.Audio, row.URL, row.AddedAt, row.Status,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}

func (t *SQLiteTable) initSchema(ctx context.Context) error {
	var tableExists int
	err := t.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return t.createSchema(ctx)
	}

	var version int
	err = t.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (export with 'animedb search --table' and recreate the database)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (t *SQLiteTable) createSchema(ctx context.Context) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
