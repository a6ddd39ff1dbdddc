package proc

import (
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/giantswarm/svcsup/internal/sentinel"
)

// ErrEmptyName is returned by Spawn when the config has no service name.
const ErrEmptyName = sentinel.Error("service name must not be empty")

// ErrEmptyPath is returned by Spawn when the config has no executable path.
const ErrEmptyPath = sentinel.Error("executable path must not be empty")

// ErrEmptyRunDir is returned by Spawn when the config has no run directory.
const ErrEmptyRunDir = sentinel.Error("run directory must not be empty")

// SpawnConfig describes a single daemon launch.
type SpawnConfig struct {
	Name   string   // service name, used for log file names and messages
	Path   string   // executable path
	Args   []string // arguments, not including the executable itself
	Env    []string // extra KEY=VALUE entries appended to the parent environment
	RunDir string   // working directory; also receives the capture log files

	// Detach places the child in its own session (setsid) so it survives
	// the spawning process. When false, the child is tied to the parent:
	// on Linux it receives SIGTERM if the parent dies.
	Detach bool

	Logger *slog.Logger // optional, defaults to slog.Default()
}

func (c SpawnConfig) validate() error {
	if c.Name == "" {
		return ErrEmptyName
	}
	if c.Path == "" {
		return ErrEmptyPath
	}
	if c.RunDir == "" {
		return ErrEmptyRunDir
	}
	return nil
}

// Handle owns one spawned daemon process. It is not safe for concurrent
// use; the supervisor serializes all access behind its own mutex.
type Handle struct {
	cmd      *exec.Cmd
	waitDone <-chan error    // delivers the cmd.Wait result, consumed once by Stop
	exited   <-chan struct{} // closed on exit; safe to select on from many goroutines
	logs     LogFiles
	name     string
	log      *slog.Logger
}

// Spawn starts the configured daemon and returns a Handle owning it.
// Stdout and stderr are redirected to capture files under RunDir. Exactly
// one goroutine calling cmd.Wait is started here; calling Wait twice on
// the same process is undefined, so Stop consumes its result through the
// handle's done channel instead of waiting itself.
func Spawn(cfg SpawnConfig) (*Handle, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid spawn config: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	logs, err := OpenLogFiles(cfg.RunDir, cfg.Name)
	if err != nil {
		return nil, fmt.Errorf("create %s logs: %w", cfg.Name, err)
	}

	cmd := exec.Command(cfg.Path, cfg.Args...)
	cmd.Dir = cfg.RunDir
	cmd.Stdout = logs.stdout
	cmd.Stderr = logs.stderr
	if len(cfg.Env) > 0 {
		cmd.Env = append(cmd.Environ(), cfg.Env...)
	}
	applySysProcAttr(cmd, cfg.Detach)

	if err := cmd.Start(); err != nil {
		logs.Close()
		return nil, fmt.Errorf("start %s process: %w", cfg.Name, err)
	}

	done := make(chan error, 1)
	exited := make(chan struct{})
	go func() {
		done <- cmd.Wait()
		close(exited)
	}()

	log.Debug("process spawned", "service", cfg.Name, "pid", cmd.Process.Pid, "detach", cfg.Detach)
	return &Handle{
		cmd:      cmd,
		waitDone: done,
		exited:   exited,
		logs:     logs,
		name:     cfg.Name,
		log:      log,
	}, nil
}

// Pid returns the operating-system process id of the spawned daemon.
func (h *Handle) Pid() int {
	return h.cmd.Process.Pid
}

// Exited returns a channel that is closed when the daemon exits, whether
// by itself or through Stop. Readiness polling selects on it to abort
// early when the daemon dies during startup.
func (h *Handle) Exited() <-chan struct{} {
	return h.exited
}

// Close releases the capture file handles. Call after Stop; the daemon
// keeps its inherited descriptors either way.
func (h *Handle) Close() {
	h.logs.Close()
}
