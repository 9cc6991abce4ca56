package workflow

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"stanza/internal/fileutil"
	"stanza/internal/logging"
	"stanza/internal/stanza"
	"stanza/internal/syncstate"
)

// Job pairs a monolithic source with the directory holding its stanza form.
type Job struct {
	Name        string
	Source      string
	Destination string
}

// Label names the job in logs: its configured name, or the destination
// directory's base name for ad-hoc jobs.
func (j Job) Label() string {
	if name := strings.TrimSpace(j.Name); name != "" {
		return name
	}
	return filepath.Base(j.Destination)
}

// Options configures a Runner.
type Options struct {
	Format stanza.Format
	// Index is optional. Without it the prior snapshot comes from the
	// manifest on disk and no run history is kept.
	Index   *syncstate.Store
	LockDir string
	Logger  *slog.Logger
}

// Runner executes extract and combine jobs.
type Runner struct {
	format   stanza.Format
	splitter *stanza.Splitter
	combiner *stanza.Combiner
	index    *syncstate.Store
	lockDir  string
	logger   *slog.Logger
}

// NewRunner builds a Runner from opts.
func NewRunner(opts Options) (*Runner, error) {
	if strings.TrimSpace(opts.LockDir) == "" {
		return nil, errors.New("workflow: lock directory is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	splitter, err := stanza.NewSplitter(opts.Format, logger)
	if err != nil {
		return nil, err
	}
	combiner, err := stanza.NewCombiner(opts.Format, logger)
	if err != nil {
		return nil, err
	}
	return &Runner{
		format:   opts.Format,
		splitter: splitter,
		combiner: combiner,
		index:    opts.Index,
		lockDir:  opts.LockDir,
		logger:   logging.NewComponentLogger(logger, "workflow"),
	}, nil
}

// ExtractOptions tunes one extraction.
type ExtractOptions struct {
	// Prune deletes files reported as removed once extraction succeeds.
	Prune bool
	// OnChange receives each change as it is reported.
	OnChange func(stanza.Change)
}

// ExtractOutcome is the result of Runner.Extract.
type ExtractOutcome struct {
	RunID  string
	Result stanza.ExtractResult
	// Pruned lists removed paths deleted because of ExtractOptions.Prune.
	Pruned []string
}

// CombineOutcome is the result of Runner.Combine.
type CombineOutcome struct {
	RunID  string
	Result stanza.CombineResult
}

// Extract splits job.Source into job.Destination.
func (r *Runner) Extract(ctx context.Context, job Job, opts ExtractOptions) (ExtractOutcome, error) {
	var outcome ExtractOutcome

	lock, err := r.lock(job.Destination)
	if err != nil {
		return outcome, err
	}
	defer func() { _ = lock.Unlock() }()

	run := r.beginRun(ctx, syncstate.OperationExtract, job)
	outcome.RunID = run.ID
	ctx = logging.WithRunID(logging.WithDocument(ctx, job.Label()), run.ID)
	logger := logging.WithContext(ctx, r.logger)

	prior := r.priorSnapshot(ctx, logger, job.Destination)
	result, extractErr := r.splitter.Extract(ctx, stanza.ExtractRequest{
		Source:      job.Source,
		Destination: job.Destination,
		Prior:       prior,
		OnChange:    opts.OnChange,
	})
	outcome.Result = result

	if err := r.record(ctx, job.Destination, result.Changes); err != nil {
		logger.Warn("failed to update sync index",
			logging.Error(err),
			logging.String(logging.FieldEventType, "index_update_failed"),
			logging.Alert("index"),
		)
	}

	removed := result.Removed()
	if extractErr == nil && opts.Prune {
		outcome.Pruned = r.prune(logger, removed)
	}

	r.finishRun(ctx, logger, run, syncstate.RunSummary{
		Fragments: len(result.Fragments),
		Removed:   len(removed),
		Err:       extractErr,
	})
	if extractErr != nil {
		logger.Error("extraction failed",
			logging.Error(extractErr),
			logging.String(logging.FieldErrorKind, stanza.ErrorKind(extractErr)),
			logging.String(logging.FieldEventType, "extract_failed"),
		)
		return outcome, extractErr
	}
	return outcome, nil
}

// Combine rebuilds job.Source from job.Destination.
func (r *Runner) Combine(ctx context.Context, job Job) (CombineOutcome, error) {
	var outcome CombineOutcome

	lock, err := r.lock(job.Destination)
	if err != nil {
		return outcome, err
	}
	defer func() { _ = lock.Unlock() }()

	run := r.beginRun(ctx, syncstate.OperationCombine, job)
	outcome.RunID = run.ID
	ctx = logging.WithRunID(logging.WithDocument(ctx, job.Label()), run.ID)
	logger := logging.WithContext(ctx, r.logger)

	result, combineErr := r.combiner.Combine(ctx, job.Destination, job.Source)
	outcome.Result = result

	r.finishRun(ctx, logger, run, syncstate.RunSummary{
		Fragments: len(result.Fragments),
		Err:       combineErr,
	})
	if combineErr != nil {
		logger.Error("combine failed",
			logging.Error(combineErr),
			logging.String(logging.FieldErrorKind, stanza.ErrorKind(combineErr)),
			logging.String(logging.FieldEventType, "combine_failed"),
		)
		return outcome, combineErr
	}
	return outcome, nil
}

func (r *Runner) lock(destination string) (*fileutil.Lock, error) {
	lock, err := fileutil.TryLock(fileutil.LockPath(r.lockDir, destination))
	if err != nil {
		if errors.Is(err, fileutil.ErrLocked) {
			return nil, fmt.Errorf("destination %s is busy: %w", destination, err)
		}
		return nil, err
	}
	return lock, nil
}

// priorSnapshot prefers the sync index and falls back to the manifest left
// by the previous extraction. A missing manifest simply means no prior.
func (r *Runner) priorSnapshot(ctx context.Context, logger *slog.Logger, destination string) stanza.Snapshot {
	if r.index != nil {
		snap, err := r.index.Snapshot(ctx, destination)
		if err != nil {
			logger.Warn("failed to read sync index; using manifest on disk",
				logging.Error(err),
				logging.String("index_path", r.index.Path()),
				logging.String(logging.FieldEventType, "index_read_failed"),
			)
		} else if len(snap) > 0 {
			return snap
		}
	}

	names, err := stanza.ReadManifest(destination, r.format)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("ignoring unreadable prior manifest",
				logging.Error(err),
				logging.String(logging.FieldEventType, "prior_manifest_unreadable"),
			)
		}
		return nil
	}
	return stanza.SnapshotFromManifest(destination, r.format, names)
}

func (r *Runner) record(ctx context.Context, destination string, changes []stanza.Change) error {
	if r.index == nil {
		return nil
	}
	return r.index.Record(context.WithoutCancel(ctx), destination, changes)
}

func (r *Runner) prune(logger *slog.Logger, removed []stanza.Change) []string {
	var pruned []string
	for _, change := range removed {
		if err := fileutil.RemoveIfExists(change.Path); err != nil {
			logger.Warn("failed to prune stale fragment",
				logging.String(logging.FieldFragment, filepath.Base(change.Path)),
				logging.Error(err),
				logging.String(logging.FieldEventType, "prune_failed"),
			)
			continue
		}
		pruned = append(pruned, change.Path)
		logger.Debug("pruned stale fragment", logging.String(logging.FieldFragment, filepath.Base(change.Path)))
	}
	return pruned
}

func (r *Runner) beginRun(ctx context.Context, op syncstate.Operation, job Job) syncstate.Run {
	if r.index != nil {
		run, err := r.index.BeginRun(ctx, op, job.Source, job.Destination)
		if err == nil {
			return run
		}
		r.logger.Warn("failed to record run start",
			logging.Error(err),
			logging.String(logging.FieldEventType, "index_update_failed"),
		)
	}
	return syncstate.Run{ID: uuid.NewString(), Operation: op, Source: job.Source, Destination: job.Destination}
}

func (r *Runner) finishRun(ctx context.Context, logger *slog.Logger, run syncstate.Run, summary syncstate.RunSummary) {
	if r.index == nil {
		return
	}
	if err := r.index.FinishRun(context.WithoutCancel(ctx), run.ID, summary); err != nil {
		logger.Warn("failed to record run result",
			logging.Error(err),
			logging.String(logging.FieldEventType, "index_update_failed"),
		)
	}
}
