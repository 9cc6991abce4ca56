package stanza

import (
	"bufio"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stanza/internal/fileutil"
	"stanza/internal/logging"
)

// Combiner reassembles a stanza directory into one monolithic file.
type Combiner struct {
	format Format
	logger *slog.Logger
	now    func() time.Time
}

// NewCombiner validates format and builds a Combiner. A nil logger discards
// output.
func NewCombiner(format Format, logger *slog.Logger) (*Combiner, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	return &Combiner{
		format: format,
		logger: logging.NewComponentLogger(logger, "combine"),
		now:    time.Now,
	}, nil
}

// CombineResult summarizes a completed combine.
type CombineResult struct {
	// Fragments holds the fragment names read, in manifest order.
	Fragments []string
	// Target is the monolithic file written.
	Target string
	// Change is the single completion event. Its path is the stanza
	// directory that was read.
	Change Change
	// Bytes is the size of the decoded output.
	Bytes int64
}

// Combine decodes the fragments listed in destination's manifest, in order,
// into target. Target is replaced atomically, so a failed run leaves any
// previous target untouched.
func (c *Combiner) Combine(ctx context.Context, destination, target string) (CombineResult, error) {
	var result CombineResult
	logger := logging.WithContext(ctx, c.logger).With(
		logging.String(logging.FieldDestination, destination),
		logging.String("target_path", target),
	)
	started := c.now()

	names, err := ReadManifest(destination, c.format)
	if err != nil {
		return result, err
	}
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(destination, name)
		if _, err := os.Stat(paths[i]); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return result, wrap(ErrFragmentMissing, "stat", paths[i], err)
			}
			return result, wrap(ErrSourceUnreadable, "stat", paths[i], err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return result, wrap(ErrDestinationUnwritable, "create directory", filepath.Dir(target), err)
	}
	mode := os.FileMode(0o644)
	if info, err := os.Stat(target); err == nil && info.Mode().IsRegular() {
		mode = info.Mode().Perm()
	}
	out, err := fileutil.CreateAtomic(target, mode)
	if err != nil {
		return result, wrap(ErrDestinationUnwritable, "create", target, err)
	}
	defer out.Abort()

	buf := bufio.NewWriter(out)
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		last := i == len(paths)-1
		n, err := decodeFragment(buf, path, last)
		if err != nil {
			return result, err
		}
		result.Bytes += n
		logger.Debug("fragment decoded",
			logging.String(logging.FieldFragment, names[i]),
			logging.Int64("bytes", n),
		)
	}
	if err := buf.Flush(); err != nil {
		return result, wrap(ErrDestinationUnwritable, "write", target, err)
	}
	if err := out.Commit(); err != nil {
		return result, wrap(ErrDestinationUnwritable, "commit", target, err)
	}

	result.Fragments = names
	result.Target = target
	result.Change = Change{Path: destination, Kind: ChangeWritten, At: c.now()}
	logger.Info("combine complete",
		logging.String(logging.FieldEventType, "combine_complete"),
		logging.Int("fragment_count", len(names)),
		logging.Int64("bytes", result.Bytes),
		logging.Duration("elapsed", c.now().Sub(started)),
	)
	return result, nil
}

// decodeFragment streams one fragment into w. Every fragment but the last
// must decode to content ending in a newline, otherwise its final line would
// merge with the next fragment's heading.
func decodeFragment(w io.Writer, path string, last bool) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, wrap(ErrFragmentMissing, "open", path, err)
		}
		return 0, wrap(ErrSourceUnreadable, "open", path, err)
	}
	defer f.Close()

	var (
		written  int64
		trailing string
		reader   = bufio.NewReader(f)
	)
	for {
		physical, readErr := reader.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return written, wrap(ErrSourceUnreadable, "read", path, readErr)
		}
		if physical != "" {
			decoded := DecodeLine(physical)
			if decoded != "" {
				trailing = decoded
			}
			n, err := io.WriteString(w, decoded)
			written += int64(n)
			if err != nil {
				return written, wrap(ErrDestinationUnwritable, "write", path, err)
			}
		}
		if readErr != nil {
			break
		}
	}
	if !last && written > 0 && !strings.HasSuffix(trailing, "\n") {
		return written, wrap(ErrEncodingInconsistency, "fragment does not end at a line boundary", path, nil)
	}
	return written, nil
}
