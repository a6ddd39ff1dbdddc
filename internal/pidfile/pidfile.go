// Package pidfile reads and writes daemon pid files under an advisory
// file lock, so concurrent start/stop invocations cannot interleave their
// check-then-act sequences on the same file.
package pidfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/giantswarm/svcsup/internal/sentinel"
	"github.com/gofrs/flock"
)

// ErrNotFound is returned by Read when the pid file does not exist.
const ErrNotFound = sentinel.Error("pid file not found")

// ErrMalformed is returned by Read when the file content is not a
// positive decimal integer.
const ErrMalformed = sentinel.Error("pid file malformed")

// lockRetryInterval is the interval between attempts to take the
// advisory lock while another invocation holds it.
const lockRetryInterval = 50 * time.Millisecond

// File is a pid file plus its sibling advisory lock. The lock file lives
// next to the pid file with a .lock suffix and is intentionally never
// removed: deleting it could invalidate a lock concurrently taken by
// another process.
type File struct {
	path string
}

// New returns a File for the given path. No I/O is performed.
func New(path string) *File {
	return &File{path: path}
}

// Path returns the pid file path.
func (f *File) Path() string {
	return f.path
}

// Write records pid in the file, creating or truncating it. The content
// is the decimal pid followed by a newline, matching what init scripts
// and process supervisors conventionally write.
func (f *File) Write(ctx context.Context, pid int) error {
	if pid <= 0 {
		return fmt.Errorf("write %s: pid must be positive, got %d", f.path, pid)
	}
	return f.withLock(ctx, func() error {
		if err := os.WriteFile(f.path, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.path, err)
		}
		return nil
	})
}

// Read returns the recorded pid. Returns ErrNotFound when the file is
// absent and ErrMalformed when it does not hold a positive integer.
func (f *File) Read(ctx context.Context) (int, error) {
	var pid int
	err := f.withLock(ctx, func() error {
		raw, err := os.ReadFile(f.path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("%s: %w", f.path, ErrNotFound)
			}
			return fmt.Errorf("read %s: %w", f.path, err)
		}
		n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
		if err != nil || n <= 0 {
			return fmt.Errorf("%s: %w", f.path, ErrMalformed)
		}
		pid = n
		return nil
	})
	return pid, err
}

// Remove deletes the pid file. A missing file is not an error, so Remove
// is safe as the best-effort tail of a stop.
func (f *File) Remove(ctx context.Context) error {
	return f.withLock(ctx, func() error {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", f.path, err)
		}
		return nil
	})
}

// withLock runs fn while holding the advisory lock, retrying acquisition
// at lockRetryInterval until it succeeds or ctx is done.
func (f *File) withLock(ctx context.Context, fn func() error) error {
	fl := flock.New(f.path + ".lock")
	locked, err := fl.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return fmt.Errorf("lock %s: %w", fl.Path(), err)
	}
	if !locked {
		// TryLockContext reports failure through its error; this branch
		// covers the unexpected (false, nil) case.
		if ctx.Err() != nil {
			return fmt.Errorf("lock %s: %w", fl.Path(), ctx.Err())
		}
		return fmt.Errorf("lock %s: lock not acquired", fl.Path())
	}
	// Close releases the lock and the descriptor in one step.
	defer func() { _ = fl.Close() }()

	return fn()
}
