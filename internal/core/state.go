package core

import "fmt"

// RunState is the lifecycle state of one supervised service.
//
// Transitions:
//
//	Stopped → Starting      on a start request
//	Starting → Running      on readiness confirmed, or on readiness
//	                        timeout (logged as a warning, non-fatal)
//	Running → StopPending   on a stop request
//	StopPending → Stopped   once the process exit is confirmed
//
// Stopped is both the initial and the terminal state.
type RunState int

const (
	// Stopped means no process is associated with the service.
	Stopped RunState = iota

	// Starting means the process has been spawned but readiness has not
	// yet been confirmed.
	Starting

	// Running means the service is up; readiness was either confirmed or
	// the wait timed out and the degraded state was observed and logged.
	Running

	// StopPending means a stop request is in flight: the termination
	// signal has been sent and the supervisor is waiting for exit.
	StopPending
)

// IsValid reports whether s is a recognized RunState value.
func (s RunState) IsValid() bool {
	switch s {
	case Stopped, Starting, Running, StopPending:
		return true
	default:
		return false
	}
}

// String returns the state name as persisted in run records.
func (s RunState) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Starting:
		return "Starting"
	case Running:
		return "Running"
	case StopPending:
		return "StopPending"
	default:
		return fmt.Sprintf("RunState(%d)", int(s))
	}
}

// ParseRunState maps a persisted state name back to its RunState. Unknown
// names map to Stopped: a record written by a newer version is treated as
// not running rather than rejected.
func ParseRunState(s string) RunState {
	switch s {
	case "Starting":
		return Starting
	case "Running":
		return Running
	case "StopPending":
		return StopPending
	default:
		return Stopped
	}
}
