package core

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Mounter prepares the filesystems a daemon expects before launch.
// It is an external collaborator: the supervisor delegates and never
// mounts anything itself.
type Mounter interface {
	Prepare(ctx context.Context) error
}

// NetworkConfigurator prepares the network interfaces a daemon expects
// before launch, typically the loopback interface.
type NetworkConfigurator interface {
	Configure(ctx context.Context) error
}

// ReadinessChecker performs a single readiness probe attempt against a
// service. The supervisor polls it until ready or until the configured
// timeout elapses. Implementations must honor ctx so a timed-out poll
// does not leave probes hanging.
type ReadinessChecker interface {
	Check(ctx context.Context, svc ServiceConfig) (ready bool, err error)
}

// SessionRunner manages the named interactive multiplexer sessions used
// by debug launches.
type SessionRunner interface {
	Start(ctx context.Context, name string, command []string) error
	Exists(ctx context.Context, name string) bool
	Kill(ctx context.Context, name string) error
}

// ServiceConfig describes one daemon the supervisor manages.
type ServiceConfig struct {
	// Name identifies the service. At most one process handle is
	// associated with a name at any time.
	Name string

	// ExecPath is the daemon executable.
	ExecPath string

	// Args are the base arguments, before overlay flags are appended.
	Args []string

	// OverlayDirs are appended to the argument vector as one "-o <dir>"
	// pair per entry, preserving this order.
	OverlayDirs []string

	// Env holds KEY=VALUE overrides (PATH, LC_ALL, ...) appended to the
	// inherited environment of a supervised launch.
	Env []string

	// Debug launches the daemon inside a named interactive session
	// instead of a supervised detached process. Debug launches have no
	// exit-code tracking; only the session name is recorded for teardown.
	Debug bool

	// PIDFile is where the daemon's pid is recorded for supervised
	// launches. Empty in debug mode.
	PIDFile string

	// ReadyAddr is the TCP address probed by the default readiness
	// checker. Ignored when the supervisor has a custom checker.
	ReadyAddr string

	// ReadyTimeout bounds the readiness wait. Zero uses the supervisor
	// default.
	ReadyTimeout time.Duration
}

// Validate checks the required fields.
func (c ServiceConfig) Validate() error {
	if c.Name == "" {
		return errors.New("service name must not be empty")
	}
	if c.ExecPath == "" {
		return errors.New("executable path must not be empty")
	}
	if !c.Debug && c.PIDFile == "" {
		return errors.New("pid file path must not be empty for a supervised launch")
	}
	return nil
}

// Config holds the supervisor-wide configuration. All fields are
// immutable after construction; NewSupervisor copies the struct.
type Config struct {
	// RegistryPath is the SQLite file holding durable run records.
	RegistryPath string

	// RunDir receives daemon working directories and capture logs.
	RunDir string

	// ReadyTimeout is the default readiness wait deadline for services
	// that do not set their own.
	ReadyTimeout time.Duration

	// ReadyInterval is the poll interval of the readiness wait.
	ReadyInterval time.Duration

	// StopTimeout bounds the stop-side wait for process exit. Zero means
	// unbounded, matching the classic rc stop semantics: the readiness
	// wait on start is bounded, the exit wait on stop is not.
	StopTimeout time.Duration

	// Collaborators. Mounter and Network may be nil when host
	// preparation is handled elsewhere. Readiness and Sessions are
	// required (the root package installs defaults).
	Mounter   Mounter
	Network   NetworkConfigurator
	Readiness ReadinessChecker
	Sessions  SessionRunner
}

// Validate checks the supervisor configuration.
func (c Config) Validate() error {
	if c.RegistryPath == "" {
		return errors.New("registry path must not be empty")
	}
	if c.RunDir == "" {
		return errors.New("run directory must not be empty")
	}
	if c.ReadyTimeout <= 0 {
		return fmt.Errorf("ready timeout must be positive, got %v", c.ReadyTimeout)
	}
	if c.ReadyInterval <= 0 {
		return fmt.Errorf("ready interval must be positive, got %v", c.ReadyInterval)
	}
	if c.StopTimeout < 0 {
		return fmt.Errorf("stop timeout must not be negative, got %v", c.StopTimeout)
	}
	if c.Readiness == nil {
		return errors.New("readiness checker must not be nil")
	}
	if c.Sessions == nil {
		return errors.New("session runner must not be nil")
	}
	return nil
}
