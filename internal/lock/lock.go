// Package lock is a single-instance advisory lock preventing two Brandy
// Box processes from running a sync cycle against the same config
// directory at once. Grounded on OpenMined-syftbox's workspace.go
// (Workspace.Lock/Unlock over a gofrs/flock file), narrowed to just the
// lock itself since Brandy Box has no workspace directory tree to set up.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/brandstaetter/brandybox/internal/config"
)

const lockFileName = "brandybox.lock"

// ErrAlreadyRunning is returned by Acquire when another process already
// holds the lock.
var ErrAlreadyRunning = errors.New("another brandybox instance is already running")

// Lock wraps a gofrs/flock file lock scoped to the config directory.
type Lock struct {
	flock    *flock.Flock
	disabled bool
}

// New returns a Lock over the config directory's lock file. Under
// BRANDYBOX_CONFIG_DIR test mode the lock is disabled entirely so
// parallel tests never contend on a shared file.
func New() (*Lock, error) {
	if config.IsTestMode() {
		return &Lock{disabled: true}, nil
	}

	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	return newAt(filepath.Join(dir, lockFileName)), nil
}

func newAt(path string) *Lock {
	return &Lock{flock: flock.New(path)}
}

// Acquire takes the lock, returning ErrAlreadyRunning if another process
// holds it.
func (l *Lock) Acquire() error {
	if l.disabled {
		return nil
	}

	locked, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return ErrAlreadyRunning
	}
	return nil
}

// Release gives up the lock and removes the lock file, if this process
// is the one holding it.
func (l *Lock) Release() error {
	if l.disabled || !l.flock.Locked() {
		return nil
	}

	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return os.Remove(l.flock.Path())
}
