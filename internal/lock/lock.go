// Package lock provides a cross-process lock per watched directory so that
// only one `kwscan watch` runs against a directory at a time.
package lock

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// DefaultLockDir returns ~/.kwscan/locks, or a temp-dir fallback.
func DefaultLockDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".kwscan", "locks")
	}
	return filepath.Join(home, ".kwscan", "locks")
}

// DirLock is an exclusive lock keyed by a directory's absolute path.
type DirLock struct {
	dir    string
	path   string
	flock  *flock.Flock
	locked bool
}

// ForDirectory returns the lock for watchedDir, stored under lockDir.
func ForDirectory(lockDir, watchedDir string) (*DirLock, error) {
	absDir, err := filepath.Abs(watchedDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", watchedDir, err)
	}

	sum := sha256.Sum256([]byte(absDir))
	lockPath := filepath.Join(lockDir, hex.EncodeToString(sum[:8])+".lock")

	return &DirLock{
		dir:   absDir,
		path:  lockPath,
		flock: flock.New(lockPath),
	}, nil
}

// TryLock attempts to acquire the lock without blocking. It returns false
// when another process holds it.
func (l *DirLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if acquired {
		l.locked = true
	}
	return acquired, nil
}

// Unlock releases the lock. Safe to call on an unlocked DirLock.
func (l *DirLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false

	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Dir returns the absolute directory the lock guards.
func (l *DirLock) Dir() string { return l.dir }

// Path returns the lock file path.
func (l *DirLock) Path() string { return l.path }

// IsLocked reports whether this DirLock holds the lock.
func (l *DirLock) IsLocked() bool { return l.locked }
