package fileutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestAtomicFileCommitReplacesTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "manifest.yaml")
	if err := os.WriteFile(target, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := CreateAtomic(target, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("new content"); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "old" {
		t.Fatalf("target changed before commit: %q", got)
	}

	if err := f.Commit(); err != nil {
		t.Fatal(err)
	}
	f.Abort()

	got, err = os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new content" {
		t.Fatalf("content mismatch: got %q", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the target to remain, got %d entries", len(entries))
	}
}

func TestAtomicFileAbortLeavesTargetUntouched(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "story.ni")

	f, err := CreateAtomic(target, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("partial"); err != nil {
		t.Fatal(err)
	}
	f.Abort()

	if _, err := os.Stat(target); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected target to be absent, stat err=%v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected temp file cleanup, found %d entries", len(entries))
	}
	if err := f.Commit(); err == nil {
		t.Fatal("expected commit after abort to fail")
	}
}

func TestRemoveIfExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.i7x")
	if err := RemoveIfExists(path); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := RemoveIfExists(path); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected file removed, stat err=%v", err)
	}
}

func TestTryLockIsExclusive(t *testing.T) {
	path := LockPath(filepath.Join(t.TempDir(), "locks"), "/tmp/story.stanza")

	first, err := TryLock(path)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if _, err := TryLock(path); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if err := first.Unlock(); err != nil {
		t.Fatal(err)
	}

	second, err := TryLock(path)
	if err != nil {
		t.Fatalf("relock after unlock: %v", err)
	}
	_ = second.Unlock()
}

func TestLockPathStable(t *testing.T) {
	a := LockPath("/locks", "/work/story.stanza/")
	b := LockPath("/locks", "/work/story.stanza")
	if a != b {
		t.Fatalf("expected cleaned keys to share a lock: %q vs %q", a, b)
	}
	if c := LockPath("/locks", "/work/other.stanza"); c == a {
		t.Fatalf("expected distinct destinations to get distinct locks")
	}
}

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	if err := CheckDirectoryAccess(dir); err != nil {
		t.Fatalf("expected temp dir to be accessible: %v", err)
	}
	if err := CheckDirectoryAccess(filepath.Join(dir, "missing")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	file := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := CheckDirectoryAccess(file); err == nil {
		t.Fatal("expected error for a regular file")
	}
}
