package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked means another process holds the writer lock for the store.
var ErrLocked = errors.New("index store is locked by another process")

// WriterLock is an exclusive cross-process lock held next to the database
// file while a process writes to it.
type WriterLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewWriterLock creates the lock for the database at dbPath. The lock file
// is <dbPath>.lock.
func NewWriterLock(dbPath string) *WriterLock {
	lockPath := dbPath + ".lock"
	return &WriterLock{path: lockPath, flock: flock.New(lockPath)}
}

// Acquire takes the lock without blocking and returns ErrLocked when it is
// held elsewhere.
func (l *WriterLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("%w: %s", ErrLocked, l.path)
	}
	l.locked = true
	return nil
}

// Release is safe to call on an unlocked lock.
func (l *WriterLock) Release() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

func (l *WriterLock) Path() string {
	return l.path
}
