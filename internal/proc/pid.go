package proc

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"time"

	"github.com/giantswarm/svcsup/internal/sentinel"
	"k8s.io/apimachinery/pkg/util/wait"
)

// ErrStillRunning is returned by WaitGone when the process is still alive
// after the configured timeout.
const ErrStillRunning = sentinel.Error("process still running")

// gonePollInterval is the interval between liveness probes while waiting
// for a signalled pid to disappear.
const gonePollInterval = 100 * time.Millisecond

// Alive reports whether a process with the given pid currently exists.
// It uses the null signal, which performs permission and existence checks
// without delivering anything. EPERM counts as alive: the process exists,
// we just may not signal it.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}

// Terminate sends SIGTERM to the given pid. Used for daemons recorded on
// disk that this supervisor process did not itself spawn, where no Handle
// (and therefore no cmd.Wait) exists.
func Terminate(pid int) error {
	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal pid %d: %w", pid, err)
	}
	return nil
}

// WaitGone blocks until no process with the given pid exists.
//
// A pid we did not spawn cannot be waited on directly, so this polls
// Alive at a fixed interval. With timeout <= 0 the wait is unbounded and
// ends only when the process disappears or ctx is cancelled. With a
// positive timeout, ErrStillRunning is returned once it elapses.
func WaitGone(ctx context.Context, pid int, timeout time.Duration) error {
	probe := func(context.Context) (bool, error) {
		return !Alive(pid), nil
	}

	var err error
	if timeout <= 0 {
		err = wait.PollUntilContextCancel(ctx, gonePollInterval, true, probe)
	} else {
		err = wait.PollUntilContextTimeout(ctx, gonePollInterval, timeout, true, probe)
	}
	if err != nil {
		if wait.Interrupted(err) && ctx.Err() == nil {
			return fmt.Errorf("pid %d: %w", pid, ErrStillRunning)
		}
		return fmt.Errorf("wait for pid %d to exit: %w", pid, err)
	}
	return nil
}
