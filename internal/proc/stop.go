package proc

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"
)

// killGracePeriod is the maximum time between SIGTERM and the SIGKILL
// escalation when Stop runs with a bounded timeout. Clamped to the
// timeout so the kill always lands before the deadline.
const killGracePeriod = 5 * time.Second

// killDrainTimeout bounds the final wait on the done channel after
// SIGKILL has been delivered (or after the process already exited).
// SIGKILL cannot be caught, so this only guards against a cmd.Wait that
// never returns due to stuck I/O.
const killDrainTimeout = 10 * time.Second

// Stop terminates the daemon. It sends SIGTERM and blocks until the
// process is gone.
//
// With timeout <= 0 the wait after SIGTERM is unbounded and there is no
// escalation; this matches the stop semantics of a classic rc script,
// where stop waits for however long the daemon takes to flush and exit.
// With a positive timeout, SIGKILL is scheduled after a grace period and
// Stop gives up once timeout (plus a short drain window) has elapsed.
//
// Safe to call when the process was never started or already reaped;
// returns nil in that case. After Stop returns the handle must not be
// reused.
func (h *Handle) Stop(timeout time.Duration) error {
	if h.cmd == nil || h.cmd.Process == nil {
		return nil
	}
	pid := h.cmd.Process.Pid

	if err := h.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// The process already exited; reap the wait goroutine with a hard
		// bound so a stuck cmd.Wait cannot block us forever.
		if ok, waitErr := drainDone(h.waitDone, killDrainTimeout); ok {
			return expectedSignalExit(waitErr, h.name)
		}
		return fmt.Errorf("%s: timed out draining exited process (pid %d)", h.name, pid)
	}

	if timeout <= 0 {
		// Unbounded wait, no escalation.
		return expectedSignalExit(<-h.waitDone, h.name)
	}

	grace := min(killGracePeriod, timeout)
	killTimer := time.AfterFunc(grace, func() {
		// Kill on an already-reaped process returns "process already
		// finished", which is harmless and discarded.
		_ = h.cmd.Process.Kill()
	})
	defer killTimer.Stop()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	select {
	case err := <-h.waitDone:
		return expectedSignalExit(err, h.name)
	case <-deadline.C:
		ok, waitErr := drainDone(h.waitDone, killDrainTimeout)
		if !ok {
			return fmt.Errorf("%s: process (pid %d) did not exit after SIGKILL", h.name, pid)
		}
		if err := expectedSignalExit(waitErr, h.name); err != nil {
			return fmt.Errorf("%s stop timeout: %w", h.name, err)
		}
		return nil
	}
}

// drainDone receives from done with an upper bound. Returns false if the
// bound elapsed before a value arrived.
func drainDone(done <-chan error, bound time.Duration) (bool, error) {
	t := time.NewTimer(bound)
	defer t.Stop()
	select {
	case err := <-done:
		return true, err
	case <-t.C:
		return false, nil
	}
}

// expectedSignalExit interprets a cmd.Wait error after we signalled the
// process: death by SIGTERM or SIGKILL is the success path of a stop.
func expectedSignalExit(err error, name string) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if sig := status.Signal(); sig == syscall.SIGTERM || sig == syscall.SIGKILL {
				return nil
			}
		}
	}
	return fmt.Errorf("%s: %w", name, err)
}
