package stanza

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"stanza/internal/logging"
)

// Splitter converts a monolithic source into stanza form. A Splitter holds no
// per-run state and may be reused; concurrent runs must target different
// destinations.
type Splitter struct {
	format   Format
	headings *HeadingDetector
	logger   *slog.Logger
	now      func() time.Time
}

// NewSplitter validates format and builds a Splitter. A nil logger discards
// output.
func NewSplitter(format Format, logger *slog.Logger) (*Splitter, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	headings, err := NewHeadingDetector(format.Headings)
	if err != nil {
		return nil, err
	}
	return &Splitter{
		format:   format,
		headings: headings,
		logger:   logging.NewComponentLogger(logger, "extract"),
		now:      time.Now,
	}, nil
}

// ExtractRequest describes one extraction.
type ExtractRequest struct {
	Source      string
	Destination string
	// Prior lists the paths tracked after the previous extraction. Paths it
	// holds that this run does not produce are reported as removed.
	Prior Snapshot
	// OnChange, when set, receives each change as soon as it is known, in
	// report order.
	OnChange func(Change)
}

// ExtractResult summarizes a completed extraction.
type ExtractResult struct {
	// Fragments holds fragment file names in manifest order.
	Fragments []string
	// Manifest is the path of the manifest written.
	Manifest string
	// Changes is the full change report: one written entry per fragment in
	// creation order, one for the manifest, then the removals.
	Changes []Change
}

// Removed returns the removal entries of the change report.
func (r ExtractResult) Removed() []Change {
	var removed []Change
	for _, change := range r.Changes {
		if change.Removed() {
			removed = append(removed, change)
		}
	}
	return removed
}

// Extract splits req.Source into fragments inside req.Destination and
// rewrites the manifest. Any I/O failure aborts the run; fragments closed
// before the failure stay on disk.
func (s *Splitter) Extract(ctx context.Context, req ExtractRequest) (ExtractResult, error) {
	var result ExtractResult
	logger := logging.WithContext(ctx, s.logger).With(
		logging.String(logging.FieldSource, req.Source),
		logging.String(logging.FieldDestination, req.Destination),
	)
	started := s.now()

	emit := func(change Change) {
		result.Changes = append(result.Changes, change)
		if req.OnChange != nil {
			req.OnChange(change)
		}
	}

	if err := os.MkdirAll(req.Destination, 0o755); err != nil {
		return result, wrap(ErrDestinationUnwritable, "create directory", req.Destination, err)
	}

	src, err := os.Open(req.Source)
	if err != nil {
		return result, wrap(ErrSourceUnreadable, "open", req.Source, err)
	}
	defer src.Close()

	names := newNamer(s.format)
	frag, err := s.openFragment(req.Destination, names.claim(s.format.Frontmatter))
	if err != nil {
		return result, err
	}
	defer func() {
		if frag != nil {
			frag.discard()
		}
	}()

	reader := bufio.NewReader(src)
	for {
		line, readErr := reader.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return result, wrap(ErrSourceUnreadable, "read", req.Source, readErr)
		}
		if line != "" {
			if heading, ok := s.headings.Match(line); ok {
				if err := frag.close(); err != nil {
					return result, err
				}
				emit(Change{Path: frag.path, Kind: ChangeWritten, At: s.now()})
				if err := ctx.Err(); err != nil {
					return result, err
				}
				name := names.forHeading(heading)
				logger.Debug("fragment started",
					logging.String(logging.FieldFragment, name),
					logging.String("heading", heading.Text()),
				)
				if frag, err = s.openFragment(req.Destination, name); err != nil {
					return result, err
				}
			}
			if err := frag.writeLine(line); err != nil {
				return result, err
			}
		}
		if readErr != nil {
			break
		}
	}

	if err := frag.close(); err != nil {
		return result, err
	}
	emit(Change{Path: frag.path, Kind: ChangeWritten, At: s.now()})
	frag = nil

	result.Fragments = names.names()
	manifestPath, err := writeManifest(req.Destination, s.format, result.Fragments)
	if err != nil {
		return result, err
	}
	result.Manifest = manifestPath
	emit(Change{Path: manifestPath, Kind: ChangeWritten, At: s.now()})

	removed := stalePaths(req.Prior, req.Destination, result.Fragments, s.format.ManifestName)
	for _, path := range removed {
		emit(Change{Path: path, Kind: ChangeRemoved})
	}

	logger.Info("extraction complete",
		logging.String(logging.FieldEventType, "extract_complete"),
		logging.Int("fragment_count", len(result.Fragments)),
		logging.Int("removed_count", len(removed)),
		logging.Duration("elapsed", s.now().Sub(started)),
	)
	return result, nil
}

// stalePaths returns the prior paths this run did not produce, sorted.
func stalePaths(prior Snapshot, dest string, fragments []string, manifest string) []string {
	if len(prior) == 0 {
		return nil
	}
	produced := make(map[string]struct{}, len(fragments)+1)
	for _, name := range fragments {
		produced[filepath.Join(dest, name)] = struct{}{}
	}
	produced[filepath.Join(dest, manifest)] = struct{}{}

	var stale []string
	for path := range prior {
		if _, ok := produced[filepath.Clean(path)]; !ok {
			stale = append(stale, path)
		}
	}
	sort.Strings(stale)
	return stale
}

// fragmentWriter encodes, wraps and writes lines into one fragment file.
type fragmentWriter struct {
	path string
	file *os.File
	buf  *bufio.Writer
	wrap wrapper
}

func (s *Splitter) openFragment(dir, name string) (*fragmentWriter, error) {
	path := filepath.Join(dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, wrap(ErrDestinationUnwritable, "create fragment", path, err)
	}
	return &fragmentWriter{
		path: path,
		file: file,
		buf:  bufio.NewWriter(file),
		wrap: wrapper{width: s.format.WrapWidth},
	}, nil
}

func (w *fragmentWriter) writeLine(line string) error {
	wrapped := w.wrap.wrap(EncodeLine(line))
	if DecodeText(wrapped) != line {
		return wrap(ErrEncodingInconsistency, "encode line in", w.path, nil)
	}
	if _, err := w.buf.WriteString(wrapped); err != nil {
		return wrap(ErrDestinationUnwritable, "write fragment", w.path, err)
	}
	return nil
}

func (w *fragmentWriter) close() error {
	file := w.file
	w.file = nil
	if file == nil {
		return nil
	}
	if err := w.buf.Flush(); err != nil {
		_ = file.Close()
		return wrap(ErrDestinationUnwritable, "flush fragment", w.path, err)
	}
	if err := file.Close(); err != nil {
		return wrap(ErrDestinationUnwritable, "close fragment", w.path, err)
	}
	return nil
}

// discard closes the file without flushing buffered output.
func (w *fragmentWriter) discard() {
	if w.file != nil {
		_ = w.file.Close()
		w.file = nil
	}
}
