package svcsup

import "github.com/giantswarm/svcsup/internal/core"

// Sentinel errors for error inspection with errors.Is.
// These are immutable constants safe for use in wrapped error chain comparison.
const (
	// ErrNotRunning is returned by Stop when the service has neither a run
	// record nor a pid file. No signal is delivered in that case; repeated
	// stops keep returning this error.
	ErrNotRunning = core.ErrNotRunning

	// ErrAlreadyRunning is returned by Start when a live process or
	// session is already associated with the service name.
	ErrAlreadyRunning = core.ErrAlreadyRunning

	// ErrReadinessTimeout marks a readiness wait that elapsed without the
	// service reporting ready. It appears in logs, never as a Start return
	// value: the timeout is non-fatal and the service is left running.
	ErrReadinessTimeout = core.ErrReadinessTimeout
)
