package workflow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"stanza/internal/logging"
)

// DefaultDebounce is how long a source must stay quiet before it is
// re-extracted.
const DefaultDebounce = 500 * time.Millisecond

// WatchOptions tunes Watch.
type WatchOptions struct {
	Debounce time.Duration
	Extract  ExtractOptions
	// OnExtract, when set, is called after every extraction attempt.
	OnExtract func(Job, ExtractOutcome, error)
}

// Watch extracts every job once, then again each time its source settles
// after a change. Extraction errors are logged and reported through
// OnExtract; they do not stop the watch. Watch returns nil once ctx is done.
func (r *Runner) Watch(ctx context.Context, jobs []Job, opts WatchOptions) error {
	if len(jobs) == 0 {
		return errors.New("watch: no documents to watch")
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := logging.WithContext(ctx, r.logger)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	bySource := make(map[string]Job, len(jobs))
	dirs := make(map[string]struct{})
	for _, job := range jobs {
		source := filepath.Clean(job.Source)
		bySource[source] = job
		dirs[filepath.Dir(source)] = struct{}{}
	}
	// Directories are watched rather than files so editors that replace the
	// file on save keep being observed.
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watch: add %s: %w", dir, err)
		}
	}

	run := func(job Job) {
		outcome, err := r.Extract(ctx, job, opts.Extract)
		if err != nil && ctx.Err() == nil {
			logging.WithContext(logging.WithDocument(ctx, job.Label()), logger).Warn("watch extraction failed; waiting for next change",
				logging.Error(err),
				logging.String(logging.FieldEventType, "watch_extract_failed"),
			)
		}
		if opts.OnExtract != nil {
			opts.OnExtract(job, outcome, err)
		}
	}

	for _, job := range jobs {
		if ctx.Err() != nil {
			return nil
		}
		run(job)
	}
	logger.Info("watching sources",
		logging.Int("document_count", len(jobs)),
		logging.Duration("debounce", debounce),
		logging.String(logging.FieldEventType, "watch_started"),
	)

	due := make(chan string, len(jobs))
	timers := make(map[string]*time.Timer, len(jobs))
	defer func() {
		for _, timer := range timers {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watch stopped", logging.String(logging.FieldEventType, "watch_stopped"))
			return nil

		case evt, ok := <-fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			source := filepath.Clean(evt.Name)
			if _, tracked := bySource[source]; !tracked {
				continue
			}
			if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Rename) {
				continue
			}
			if timer, ok := timers[source]; ok {
				timer.Reset(debounce)
				continue
			}
			timers[source] = time.AfterFunc(debounce, func() {
				select {
				case due <- source:
				case <-ctx.Done():
				}
			})

		case source := <-due:
			delete(timers, source)
			logger.Debug("source changed", logging.String(logging.FieldSource, source))
			run(bySource[source])

		case err, ok := <-fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			logger.Warn("watch error", logging.Error(err), logging.String(logging.FieldEventType, "watch_error"))
		}
	}
}
