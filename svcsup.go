package svcsup

import (
	"context"
	"os"
	"path/filepath"

	"github.com/giantswarm/svcsup/internal/core"
	"github.com/giantswarm/svcsup/internal/session"
	"github.com/giantswarm/svcsup/internal/sysprep"
)

// config collects the supervisor configuration assembled from options.
// The embedded core.Config is handed to the internal supervisor; the
// extra fields only steer which default collaborators are constructed.
type config struct {
	core.Config

	tmuxBinary    string
	loopbackIface string
	hostPrep      bool
}

// defaultConfig returns a config populated with all default values.
func defaultConfig() config {
	base := filepath.Join(os.TempDir(), DefaultBaseDirName)
	return config{
		Config: core.Config{
			RegistryPath:  filepath.Join(base, DefaultRegistryFileName),
			RunDir:        base,
			ReadyTimeout:  DefaultReadyTimeout,
			ReadyInterval: DefaultReadyInterval,
			StopTimeout:   DefaultStopTimeout,
		},
		tmuxBinary:    DefaultTmuxBinary,
		loopbackIface: DefaultLoopbackInterface,
	}
}

// Supervisor owns the start/stop lifecycle of named daemon processes.
// All operations are synchronous and serialized; see New.
//
// The internal supervisor is stored as a named (unexported) field rather
// than embedded to keep internal methods out of the public surface.
type Supervisor struct {
	sup *core.Supervisor
}

// New constructs a Supervisor with the given options, prepares the run
// directory, opens the run record registry and reconciles its records
// against the live system: records whose process or session no longer
// exists are dropped, live ones are adopted so Status and Stop keep
// working across supervisor restarts.
func New(ctx context.Context, opts ...Option) (*Supervisor, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	log := core.Logger()
	if cfg.Readiness == nil {
		cfg.Readiness = TCPChecker{}
	}
	if cfg.Sessions == nil {
		cfg.Sessions = session.NewTmux(cfg.tmuxBinary, log)
	}
	if cfg.hostPrep {
		if cfg.Mounter == nil {
			cfg.Mounter = sysprep.NewMounter(log)
		}
		if cfg.Network == nil {
			cfg.Network = sysprep.NewLoopback(cfg.loopbackIface, log)
		}
	}

	sup, err := core.NewSupervisor(ctx, cfg.Config)
	if err != nil {
		return nil, err
	}
	return &Supervisor{sup: sup}, nil
}

// Start launches the configured service and blocks until readiness is
// confirmed or the readiness timeout elapses. A timeout is non-fatal:
// the daemon stays up and the returned Launch has Ready=false. A daemon
// that exits before becoming ready is a start failure and is rolled
// back. Starting a service that is already running returns
// ErrAlreadyRunning.
func (s *Supervisor) Start(ctx context.Context, svc ServiceConfig) (Launch, error) {
	return s.sup.Start(ctx, svc)
}

// Stop terminates the configured service: SIGTERM to the recorded pid,
// then a blocking wait until the process is gone (unbounded unless
// WithStopTimeout was set). Debug launches have their interactive
// session torn down instead. Stopping a service with neither a run
// record nor a pid file returns ErrNotRunning and delivers no signal.
func (s *Supervisor) Stop(ctx context.Context, svc ServiceConfig) error {
	return s.sup.Stop(ctx, svc)
}

// Status returns the reconciled view of one service. A name with no run
// record reports Stopped, as does a record whose process or session has
// died since it was written.
func (s *Supervisor) Status(ctx context.Context, name string) (Status, error) {
	return s.sup.Status(ctx, name)
}

// List returns the status of every service with a run record.
func (s *Supervisor) List(ctx context.Context) ([]Status, error) {
	return s.sup.List(ctx)
}

// Shutdown stops every daemon this supervisor spawned and closes the
// registry. Daemons recorded on disk but spawned elsewhere are left
// running; they belong to whoever started them.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	return s.sup.Shutdown(ctx)
}
