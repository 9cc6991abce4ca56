package stanza

import (
	"path/filepath"
	"time"
)

// ChangeKind says what happened to a path.
type ChangeKind string

const (
	// ChangeWritten means the file was (re)written by this run.
	ChangeWritten ChangeKind = "written"
	// ChangeRemoved means a previously tracked file is no longer produced.
	ChangeRemoved ChangeKind = "removed"
)

// Change is one entry of a change report.
type Change struct {
	Path string
	Kind ChangeKind
	// At is the completion time of a write; zero for removals.
	At time.Time
}

// Removed reports whether the change is a removal.
func (c Change) Removed() bool {
	return c.Kind == ChangeRemoved
}

// Snapshot is the set of paths a caller tracked after a previous extraction,
// keyed by path, with the time each was last written. Extract reads it but
// never modifies it.
type Snapshot map[string]time.Time

// SnapshotFromManifest builds a snapshot from the fragment names of a
// manifest stored in dir. Timestamps are unknown and left zero.
func SnapshotFromManifest(dir string, format Format, names []string) Snapshot {
	snap := make(Snapshot, len(names)+1)
	for _, name := range names {
		snap[filepath.Join(dir, name)] = time.Time{}
	}
	snap[filepath.Join(dir, format.ManifestName)] = time.Time{}
	return snap
}
