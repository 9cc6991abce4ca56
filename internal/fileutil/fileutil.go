package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// AtomicFile stages writes in a temporary file beside the target and moves it
// into place on Commit, so readers never observe a half-written target.
type AtomicFile struct {
	*os.File
	target string
	done   bool
}

// CreateAtomic opens a temporary file in the target's directory with the
// given permissions. Callers must finish with Commit or Abort.
func CreateAtomic(target string, mode os.FileMode) (*AtomicFile, error) {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return nil, err
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, err
	}
	return &AtomicFile{File: tmp, target: target}, nil
}

// Target returns the path the file is renamed to on Commit.
func (f *AtomicFile) Target() string {
	return f.target
}

// Commit flushes the staged content to disk and renames it over the target.
func (f *AtomicFile) Commit() error {
	if f.done {
		return errors.New("atomic file already finished")
	}
	f.done = true
	name := f.File.Name()
	if err := f.File.Sync(); err != nil {
		_ = f.File.Close()
		_ = os.Remove(name)
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := f.File.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(name, f.target); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("rename into %s: %w", f.target, err)
	}
	return nil
}

// Abort discards the staged content. It is a no-op after Commit, so it can be
// deferred unconditionally.
func (f *AtomicFile) Abort() {
	if f.done {
		return
	}
	f.done = true
	_ = f.File.Close()
	_ = os.Remove(f.File.Name())
}

// RemoveIfExists deletes path, treating an already missing file as success.
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
