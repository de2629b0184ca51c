package patcher

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/dotpatch/pkg/errors"
	"github.com/gofrs/flock"
)

// Lock is an advisory lock held for the duration of one apply
type Lock struct {
	flock *flock.Flock
}

// AcquireLock takes the lock at path without blocking. It fails with
// ErrLocked when another process holds it.
func AcquireLock(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "cannot create lock directory").WithPath(path)
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "cannot take lock").WithPath(path)
	}
	if !locked {
		return nil, errors.New(errors.ErrLocked, "another dotpatch run is in progress").WithPath(path)
	}

	return &Lock{flock: fl}, nil
}

// Release drops the lock. The lock file stays so a concurrent run never
// locks a file that is about to be unlinked.
func (l *Lock) Release() error {
	if !l.flock.Locked() {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return errors.Wrapf(err, errors.ErrIO, "cannot release lock").WithPath(l.flock.Path())
	}
	return nil
}
