package svcsup

import "time"

// Default configuration values for New.
// These constants are exported so callers can reference the defaults
// when building custom configurations relative to them (e.g.,
// 2 * DefaultReadyTimeout).
const (
	// DefaultReadyTimeout bounds the readiness wait after a launch. The
	// value carries over the classic rc readiness loop of 240 one-second
	// probes. Elapsing is non-fatal: the daemon stays up and the launch
	// reports Ready=false.
	DefaultReadyTimeout = 240 * time.Second

	// DefaultReadyInterval is the pause between readiness probes.
	DefaultReadyInterval = time.Second

	// DefaultStopTimeout is the bound on the stop-side wait for process
	// exit. Zero means unbounded: stop blocks for however long the daemon
	// takes to flush and exit after SIGTERM, with no SIGKILL escalation.
	DefaultStopTimeout = 0 * time.Second

	// DefaultBaseDirName is the directory name under the system temp
	// directory where run state is kept when no explicit paths are
	// configured. The full path is computed as
	// filepath.Join(os.TempDir(), DefaultBaseDirName).
	DefaultBaseDirName = "svcsup"

	// DefaultRegistryFileName is the file name of the run record database
	// inside the base directory.
	DefaultRegistryFileName = "runs.db"

	// DefaultTmuxBinary is the binary name used to locate tmux in PATH
	// for debug launches.
	DefaultTmuxBinary = "tmux"

	// DefaultLoopbackInterface is the interface configured by the default
	// network preparation installed via WithHostPreparation.
	DefaultLoopbackInterface = "lo0"
)
