package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked reports that another process holds the lock.
var ErrLocked = errors.New("lock held by another process")

// Lock is an exclusive advisory lock on a file.
type Lock struct {
	lock *flock.Flock
}

// LockPath derives the lock file used to guard key (typically a destination
// directory) inside lockDir.
func LockPath(lockDir, key string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(key)))
	return filepath.Join(lockDir, hex.EncodeToString(sum[:])[:16]+".lock")
}

// TryLock acquires the lock at path without blocking. ErrLocked is returned
// when another process already holds it.
func TryLock(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return &Lock{lock: fl}, nil
}

// Unlock releases the lock. Nil receivers are ignored.
func (l *Lock) Unlock() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
