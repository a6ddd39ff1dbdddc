// Package session drives an interactive terminal-multiplexer session for
// debug launches. The daemon runs in the foreground of a named tmux
// session where an operator can attach and inspect it. This launch mode
// deliberately has no exit-code tracking: tmux owns the process, and the
// supervisor only records the session name for later teardown.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/giantswarm/svcsup/internal/sentinel"
)

// ErrNoSession is returned by Kill when the named session does not exist.
const ErrNoSession = sentinel.Error("session not found")

// runFunc executes the multiplexer binary with the given arguments and
// returns its combined output. Replaced in tests.
type runFunc func(ctx context.Context, args ...string) ([]byte, error)

// Tmux launches and tears down named tmux sessions.
type Tmux struct {
	binary string
	log    *slog.Logger
	run    runFunc
}

// NewTmux returns a Tmux using the given binary ("tmux" resolved from
// PATH when empty). If logger is nil, slog.Default() is used.
func NewTmux(binary string, logger *slog.Logger) *Tmux {
	if binary == "" {
		binary = "tmux"
	}
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tmux{binary: binary, log: logger}
	t.run = func(ctx context.Context, args ...string) ([]byte, error) {
		return exec.CommandContext(ctx, t.binary, args...).CombinedOutput()
	}
	return t
}

// Start creates a detached session with the given name and types the
// command into it, mirroring `tmux new-session -d -s <name>` followed by
// `tmux send-keys`. The command keeps running in the session's pane; its
// exit status is not observable from here.
func (t *Tmux) Start(ctx context.Context, name string, command []string) error {
	if name == "" {
		return errors.New("session name must not be empty")
	}
	if len(command) == 0 {
		return errors.New("command must not be empty")
	}
	if out, err := t.run(ctx, "new-session", "-d", "-s", name); err != nil {
		return fmt.Errorf("create session %s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	keys := strings.Join(command, " ")
	if out, err := t.run(ctx, "send-keys", "-t", name, keys, "Enter"); err != nil {
		// The pane exists but the command could not be delivered; tear the
		// session down so a retry does not collide with the name.
		if kerr := t.Kill(ctx, name); kerr != nil && !errors.Is(kerr, ErrNoSession) {
			t.log.Warn("session teardown after failed send-keys", "session", name, "error", kerr)
		}
		return fmt.Errorf("send command to session %s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	t.log.Debug("interactive session started", "session", name)
	return nil
}

// Exists reports whether a session with the given name is alive, via
// `tmux has-session`.
func (t *Tmux) Exists(ctx context.Context, name string) bool {
	_, err := t.run(ctx, "has-session", "-t", name)
	return err == nil
}

// Kill tears down the named session. Returns ErrNoSession when tmux
// reports no such session, so callers can treat repeated teardown as
// idempotent.
func (t *Tmux) Kill(ctx context.Context, name string) error {
	out, err := t.run(ctx, "kill-session", "-t", name)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// tmux exits non-zero with "can't find session" on stderr.
			return fmt.Errorf("%s: %w", name, ErrNoSession)
		}
		return fmt.Errorf("kill session %s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	t.log.Debug("interactive session killed", "session", name)
	return nil
}
