package svcsup

import (
	"fmt"
	"time"
)

// requirePositive panics if v <= 0 with a descriptive message.
func requirePositive(name string, v time.Duration) {
	if v <= 0 {
		panic(fmt.Sprintf("svcsup: %s must be greater than 0, got %v", name, v))
	}
}

// requireNonEmpty panics if s is empty with a descriptive message.
func requireNonEmpty(name, s string) {
	if s == "" {
		panic(fmt.Sprintf("svcsup: %s must not be empty", name))
	}
}

// Option configures a Supervisor during construction via New.
// Each With* function returns an Option that sets a specific field.
//
// Several With* functions panic on invalid input (empty paths, nil
// collaborators, non-positive durations). These panics are intentional:
// option values are typically compile-time constants or package-level
// variables, so an invalid value indicates a programmer error rather
// than a runtime condition. The pattern mirrors [regexp.MustCompile]:
// fail fast during initialization instead of returning errors that
// would be universally fatal anyway.
type Option func(*config)

// WithRegistryPath sets the path of the run record database.
//
// Default: runs.db inside the base directory under os.TempDir().
//
// Panics if path is empty.
func WithRegistryPath(path string) Option {
	requireNonEmpty("registry path", path)
	return func(c *config) {
		c.RegistryPath = path
	}
}

// WithRunDir sets the directory receiving per-service working
// directories and captured stdout/stderr logs.
//
// Default: the base directory under os.TempDir().
//
// Panics if dir is empty.
func WithRunDir(dir string) Option {
	requireNonEmpty("run directory", dir)
	return func(c *config) {
		c.RunDir = dir
	}
}

// WithReadyTimeout sets the default readiness wait deadline for services
// that do not set their own ReadyTimeout. Elapsing is non-fatal; see
// ErrReadinessTimeout.
//
// Default: DefaultReadyTimeout (240 seconds).
//
// Panics if d <= 0.
func WithReadyTimeout(d time.Duration) Option {
	requirePositive("ready timeout", d)
	return func(c *config) {
		c.ReadyTimeout = d
	}
}

// WithReadyInterval sets the pause between readiness probes.
//
// Default: DefaultReadyInterval (1 second).
//
// Panics if d <= 0.
func WithReadyInterval(d time.Duration) Option {
	requirePositive("ready interval", d)
	return func(c *config) {
		c.ReadyInterval = d
	}
}

// WithStopTimeout bounds the stop-side wait for process exit. With a
// positive value, SIGKILL is escalated after a grace period and the stop
// gives up once the bound elapses. Zero restores the default unbounded
// wait: SIGTERM only, blocking for as long as the daemon takes to exit.
//
// Default: DefaultStopTimeout (unbounded).
//
// Panics if d < 0.
func WithStopTimeout(d time.Duration) Option {
	if d < 0 {
		panic(fmt.Sprintf("svcsup: stop timeout must not be negative, got %v", d))
	}
	return func(c *config) {
		c.StopTimeout = d
	}
}

// WithMounter installs a filesystem preparation collaborator called
// before every launch. Without one (and without WithHostPreparation),
// no filesystem preparation happens.
//
// Panics if m is nil.
func WithMounter(m Mounter) Option {
	if m == nil {
		panic("svcsup: mounter must not be nil")
	}
	return func(c *config) {
		c.Mounter = m
	}
}

// WithNetworkConfigurator installs a network preparation collaborator
// called before every launch. Without one (and without
// WithHostPreparation), no network preparation happens.
//
// Panics if n is nil.
func WithNetworkConfigurator(n NetworkConfigurator) Option {
	if n == nil {
		panic("svcsup: network configurator must not be nil")
	}
	return func(c *config) {
		c.Network = n
	}
}

// WithHostPreparation installs the built-in host preparation: remount
// the root filesystem read-write plus an fdescfs mount via mount(8), and
// bring up the loopback interface via ifconfig(8). Collaborators set
// explicitly through WithMounter or WithNetworkConfigurator take
// precedence over the built-ins.
func WithHostPreparation() Option {
	return func(c *config) {
		c.hostPrep = true
	}
}

// WithLoopbackInterface sets the interface name configured by the
// built-in network preparation. Only meaningful together with
// WithHostPreparation.
//
// Default: DefaultLoopbackInterface ("lo0").
//
// Panics if iface is empty.
func WithLoopbackInterface(iface string) Option {
	requireNonEmpty("loopback interface", iface)
	return func(c *config) {
		c.loopbackIface = iface
	}
}

// WithReadinessChecker replaces the default TCP readiness probe.
//
// Panics if r is nil.
func WithReadinessChecker(r ReadinessChecker) Option {
	if r == nil {
		panic("svcsup: readiness checker must not be nil")
	}
	return func(c *config) {
		c.Readiness = r
	}
}

// WithSessionRunner replaces the default tmux-backed session runner used
// by debug launches.
//
// Panics if r is nil.
func WithSessionRunner(r SessionRunner) Option {
	if r == nil {
		panic("svcsup: session runner must not be nil")
	}
	return func(c *config) {
		c.Sessions = r
	}
}

// WithTmuxBinary sets the path of the tmux binary used by the default
// session runner. Ignored when WithSessionRunner is set.
//
// Default: DefaultTmuxBinary resolved from PATH.
//
// Panics if binPath is empty.
func WithTmuxBinary(binPath string) Option {
	requireNonEmpty("tmux binary path", binPath)
	return func(c *config) {
		c.tmuxBinary = binPath
	}
}
