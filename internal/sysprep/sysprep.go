// Package sysprep provides the exec-based host-preparation collaborators
// the supervisor delegates to before launching a daemon: remounting
// filesystems and configuring the loopback interface. The supervisor
// never shells out itself; it only calls these through the capability
// interfaces defined in the root package.
package sysprep

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// runFunc executes a host command and returns its combined output.
// Replaced in tests.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Mounter prepares the filesystems a daemon expects: the root filesystem
// remounted read-write and a descriptor filesystem at /dev/fd.
type Mounter struct {
	log *slog.Logger
	run runFunc
}

// NewMounter returns a Mounter shelling out to mount(8).
// If logger is nil, slog.Default() is used.
func NewMounter(logger *slog.Logger) *Mounter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mounter{log: logger, run: execRun}
}

// Prepare remounts the root filesystem read-write and mounts fdescfs on
// /dev/fd. An fdescfs mount that is already present is tolerated; mount
// reports it as a failure but the descriptor filesystem is in place
// either way.
func (m *Mounter) Prepare(ctx context.Context) error {
	if out, err := m.run(ctx, "mount", "-uw", "/"); err != nil {
		return fmt.Errorf("remount root read-write: %w: %s", err, strings.TrimSpace(string(out)))
	}
	if out, err := m.run(ctx, "mount", "-t", "fdescfs", "fdesc", "/dev/fd"); err != nil {
		m.log.Debug("fdescfs mount not repeated", "output", strings.TrimSpace(string(out)), "error", err)
	}
	m.log.Debug("filesystems prepared")
	return nil
}

// Loopback configures the loopback network interface so the daemon can
// bind and probe local addresses before the full network stack is up.
type Loopback struct {
	iface string
	log   *slog.Logger
	run   runFunc
}

// NewLoopback returns a Loopback for the given interface name ("lo0"
// when empty), shelling out to ifconfig(8).
func NewLoopback(iface string, logger *slog.Logger) *Loopback {
	if iface == "" {
		iface = "lo0"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loopback{iface: iface, log: logger, run: execRun}
}

// Configure assigns 127.0.0.1 to the loopback interface and brings it up.
func (l *Loopback) Configure(ctx context.Context) error {
	if out, err := l.run(ctx, "ifconfig", l.iface, "127.0.0.1", "up"); err != nil {
		return fmt.Errorf("configure %s: %w: %s", l.iface, err, strings.TrimSpace(string(out)))
	}
	l.log.Debug("loopback configured", "iface", l.iface)
	return nil
}
