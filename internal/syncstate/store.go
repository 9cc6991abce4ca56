package syncstate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"stanza/internal/stanza"
)

// Store is the SQLite-backed sync index.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open creates or connects to the index at path and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("index path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}
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

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Snapshot returns the files tracked for destination after its last recorded
// extraction. The result is empty, never nil, for an unknown destination.
func (s *Store) Snapshot(ctx context.Context, destination string) (stanza.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, written_at FROM tracked_files WHERE destination = ?`,
		destinationKey(destination),
	)
	if err != nil {
		return nil, fmt.Errorf("query tracked files: %w", err)
	}
	defer rows.Close()

	snap := make(stanza.Snapshot)
	for rows.Next() {
		var path, writtenRaw string
		if err := rows.Scan(&path, &writtenRaw); err != nil {
			return nil, fmt.Errorf("scan tracked file: %w", err)
		}
		written, _ := parseTimeString(writtenRaw)
		snap[path] = written
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracked files: %w", err)
	}
	return snap, nil
}

// Record applies a change report to destination's tracked set: written paths
// are upserted with their completion time and removed paths are forgotten.
// The whole report is applied in one transaction.
func (s *Store) Record(ctx context.Context, destination string, changes []stanza.Change) error {
	if len(changes) == 0 {
		return nil
	}
	key := destinationKey(destination)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin record tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		for _, change := range changes {
			path := filepath.Clean(change.Path)
			if change.Removed() {
				if _, err := tx.ExecContext(ctx,
					`DELETE FROM tracked_files WHERE destination = ? AND path = ?`,
					key, path,
				); err != nil {
					return fmt.Errorf("forget %s: %w", path, err)
				}
				continue
			}
			at := change.At
			if at.IsZero() {
				at = time.Now()
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO tracked_files (destination, path, written_at) VALUES (?, ?, ?)
                 ON CONFLICT(destination, path) DO UPDATE SET written_at = excluded.written_at`,
				key, path, formatTime(at),
			); err != nil {
				return fmt.Errorf("track %s: %w", path, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit record tx: %w", err)
		}
		return nil
	})
}

// Forget drops every tracked file of destination.
func (s *Store) Forget(ctx context.Context, destination string) error {
	return s.execWithRetry(ctx,
		`DELETE FROM tracked_files WHERE destination = ?`,
		destinationKey(destination),
	)
}

func destinationKey(destination string) string {
	return filepath.Clean(destination)
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
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

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// timeLayout keeps a fixed fraction width so stored timestamps sort
// lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
