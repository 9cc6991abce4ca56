package syncstate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stanza/internal/stanza"
)

// Operation names the kind of run recorded in the history.
type Operation string

const (
	OperationExtract Operation = "extract"
	OperationCombine Operation = "combine"
)

// Run is one history entry.
type Run struct {
	ID          string
	Operation   Operation
	Source      string
	Destination string
	StartedAt   time.Time
	FinishedAt  time.Time
	Fragments   int
	Removed     int
	ErrorKind   string
	Error       string
}

// Finished reports whether the run has completed, successfully or not.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// Failed reports whether the run ended with an error.
func (r Run) Failed() bool {
	return r.ErrorKind != ""
}

// RunSummary is the outcome passed to FinishRun.
type RunSummary struct {
	Fragments int
	Removed   int
	Err       error
}

const runColumns = "id, operation, source, destination, started_at, finished_at, fragments, removed, error_kind, error"

// BeginRun records the start of a run and returns it with a fresh ID.
func (s *Store) BeginRun(ctx context.Context, op Operation, source, destination string) (Run, error) {
	run := Run{
		ID:          uuid.NewString(),
		Operation:   op,
		Source:      source,
		Destination: destinationKey(destination),
		StartedAt:   time.Now().UTC(),
	}
	err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, operation, source, destination, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, string(run.Operation), nullableString(run.Source), run.Destination, formatTime(run.StartedAt),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun stamps the run's completion time and outcome.
func (s *Store) FinishRun(ctx context.Context, id string, summary RunSummary) error {
	var kind, message string
	if summary.Err != nil {
		kind = stanza.ErrorKind(summary.Err)
		message = summary.Err.Error()
	}
	err := s.execWithRetry(ctx,
		`UPDATE runs SET finished_at = ?, fragments = ?, removed = ?, error_kind = ?, error = ? WHERE id = ?`,
		formatTime(time.Now()), summary.Fragments, summary.Removed, nullableString(kind), nullableString(message), id,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	return nil
}

// GetRun fetches one run; it returns nil when the ID is unknown.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &run, nil
}

// Runs lists runs newest first. An empty destination lists every
// destination; a non-positive limit lists everything.
func (s *Store) Runs(ctx context.Context, destination string, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if destination != "" {
		query += ` WHERE destination = ?`
		args = append(args, destinationKey(destination))
	}
	query += ` ORDER BY started_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run         Run
		operation   string
		source      sql.NullString
		startedRaw  string
		finishedRaw sql.NullString
		errorKind   sql.NullString
		errorText   sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&operation,
		&source,
		&run.Destination,
		&startedRaw,
		&finishedRaw,
		&run.Fragments,
		&run.Removed,
		&errorKind,
		&errorText,
	); err != nil {
		return Run{}, err
	}
	run.Operation = Operation(operation)
	run.Source = source.String
	run.ErrorKind = errorKind.String
	run.Error = errorText.String
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finished, err := parseTimeString(finishedRaw.String); err == nil {
		run.FinishedAt = finished
	}
	return run, nil
}
