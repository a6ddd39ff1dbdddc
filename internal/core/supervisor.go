package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/giantswarm/svcsup/internal/fileutil"
	"github.com/giantswarm/svcsup/internal/pidfile"
	"github.com/giantswarm/svcsup/internal/proc"
	"github.com/giantswarm/svcsup/internal/registry"
	"github.com/giantswarm/svcsup/internal/sentinel"
	"github.com/giantswarm/svcsup/internal/session"
)

// ErrNotRunning is returned by Stop when neither a run record nor a pid
// file exists for the service. No signal is delivered in that case, and
// repeated stops keep failing the same way.
const ErrNotRunning = sentinel.Error("service is not running")

// ErrAlreadyRunning is returned by Start when a live process is already
// associated with the service name.
const ErrAlreadyRunning = sentinel.Error("service is already running")

// ErrReadinessTimeout marks a readiness wait that elapsed without the
// service reporting ready. It is observed and logged, never returned
// from Start: the service is left running in a degraded state.
const ErrReadinessTimeout = sentinel.Error("service did not report ready before the timeout")

// sessionPrefix namespaces the interactive sessions this supervisor
// creates, keeping them apart from an operator's own tmux sessions.
const sessionPrefix = "svcsup-"

// readinessWarning is the operator-facing message emitted when a service
// is left running without having confirmed readiness.
const readinessWarning = `service did not report readiness within the timeout.
The daemon was left running, but the system may not behave correctly
until it finishes initializing. Inspect the service logs in the run
directory and the readiness client output before relying on it.`

// Launch describes a completed start: what was launched and how.
// Session is set only for debug launches, PID only for supervised ones.
// Ready is false when the readiness wait timed out.
type Launch struct {
	Name     string
	LaunchID string
	PID      int
	Session  string
	Ready    bool
}

// Status is the reconciled view of one service: the persisted record
// cross-checked against the live system.
type Status struct {
	Name      string
	State     RunState
	PID       int
	LaunchID  string
	Session   string
	UpdatedAt time.Time
}

// running tracks a supervised launch owned by this supervisor process.
type running struct {
	handle  *proc.Handle
	pidFile string
}

// Supervisor owns the start/stop lifecycle of named daemon processes.
//
// All operations are synchronous and serialized behind one mutex: each
// step (host preparation, spawn, readiness poll, signal, wait-for-exit)
// runs to completion before the next begins, and a start holding the
// lock blocks a concurrent stop until it finishes. Cancellation
// mid-operation is not supported beyond ctx expiry in the waits.
type Supervisor struct {
	cfg Config
	reg *registry.Registry
	log *slog.Logger

	mu     chan struct{} // semaphore-style mutex, held across blocking waits
	owned  map[string]*running
	states map[string]RunState
}

// NewSupervisor validates cfg, prepares the run directory, opens the run
// record registry and reconciles its records against the live system.
func NewSupervisor(ctx context.Context, cfg Config) (*Supervisor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid supervisor config: %w", err)
	}
	if err := fileutil.EnsureDir(cfg.RunDir); err != nil {
		return nil, err
	}
	if err := fileutil.EnsureDirForFile(cfg.RegistryPath); err != nil {
		return nil, err
	}
	reg, err := registry.Open(ctx, cfg.RegistryPath)
	if err != nil {
		return nil, err
	}

	s := &Supervisor{
		cfg:    cfg,
		reg:    reg,
		log:    Logger(),
		mu:     make(chan struct{}, 1),
		owned:  make(map[string]*running),
		states: make(map[string]RunState),
	}
	if err := s.reconcile(ctx); err != nil {
		_ = reg.Close()
		return nil, err
	}
	return s, nil
}

// lock acquires the operation mutex, honoring ctx.
func (s *Supervisor) lock(ctx context.Context) error {
	select {
	case s.mu <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for supervisor lock: %w", ctx.Err())
	}
}

func (s *Supervisor) unlock() {
	<-s.mu
}

// reconcile cross-checks persisted run records against the live system.
// The record is a cache of the handle, not the truth: records whose pid
// or session no longer exists are dropped, live ones are adopted as
// Running (without a handle; stop falls back to pid signalling).
func (s *Supervisor) reconcile(ctx context.Context) error {
	recs, err := s.reg.List(ctx)
	if err != nil {
		return fmt.Errorf("reconcile run records: %w", err)
	}
	for _, rec := range recs {
		if s.recordLive(ctx, rec) {
			s.states[rec.Name] = ParseRunState(rec.State)
			continue
		}
		s.log.Warn("dropping stale run record", "service", rec.Name, "pid", rec.PID, "session", rec.Session)
		if err := s.reg.Delete(ctx, rec.Name); err != nil {
			return err
		}
	}
	return nil
}

// recordLive reports whether the process or session a record points at
// still exists.
func (s *Supervisor) recordLive(ctx context.Context, rec registry.Record) bool {
	if rec.Session != "" {
		return s.cfg.Sessions.Exists(ctx, rec.Session)
	}
	return proc.Alive(rec.PID)
}

// buildArgs assembles the final argument vector: the configured base
// arguments followed by one "-o <dir>" pair per overlay directory, in
// configuration order.
func buildArgs(svc ServiceConfig) []string {
	args := make([]string, 0, len(svc.Args)+2*len(svc.OverlayDirs))
	args = append(args, svc.Args...)
	for _, dir := range svc.OverlayDirs {
		args = append(args, "-o", dir)
	}
	return args
}

// Start launches the configured service and blocks until readiness is
// confirmed or the readiness timeout elapses. A timeout is non-fatal:
// the warning is logged, the daemon stays up and the returned Launch has
// Ready=false. A daemon that exits before becoming ready is a start
// failure and is cleaned up.
func (s *Supervisor) Start(ctx context.Context, svc ServiceConfig) (Launch, error) {
	if err := svc.Validate(); err != nil {
		return Launch{}, fmt.Errorf("invalid service config: %w", err)
	}
	if err := s.lock(ctx); err != nil {
		return Launch{}, err
	}
	defer s.unlock()

	if st := s.states[svc.Name]; st != Stopped {
		return Launch{}, fmt.Errorf("%s: %w (state %s)", svc.Name, ErrAlreadyRunning, st)
	}
	if rec, err := s.reg.Get(ctx, svc.Name); err == nil {
		if s.recordLive(ctx, rec) {
			return Launch{}, fmt.Errorf("%s: %w (pid %d)", svc.Name, ErrAlreadyRunning, rec.PID)
		}
		// Leftover from a dead process; clear it and proceed.
		if err := s.reg.Delete(ctx, svc.Name); err != nil {
			return Launch{}, err
		}
	} else if !errors.Is(err, registry.ErrNoRecord) {
		return Launch{}, err
	}

	// Host preparation is delegated; the supervisor performs no mounts or
	// interface configuration of its own.
	if s.cfg.Mounter != nil {
		if err := s.cfg.Mounter.Prepare(ctx); err != nil {
			return Launch{}, fmt.Errorf("prepare filesystems for %s: %w", svc.Name, err)
		}
	}
	if s.cfg.Network != nil {
		if err := s.cfg.Network.Configure(ctx); err != nil {
			return Launch{}, fmt.Errorf("prepare network for %s: %w", svc.Name, err)
		}
	}

	s.states[svc.Name] = Starting
	launchID := uuid.NewString()
	args := buildArgs(svc)

	var launch Launch
	var exited <-chan struct{}
	if svc.Debug {
		sess := sessionPrefix + svc.Name
		command := append([]string{svc.ExecPath}, args...)
		if err := s.cfg.Sessions.Start(ctx, sess, command); err != nil {
			s.states[svc.Name] = Stopped
			return Launch{}, fmt.Errorf("start %s in interactive session: %w", svc.Name, err)
		}
		if err := s.reg.Put(ctx, registry.Record{
			Name: svc.Name, LaunchID: launchID, State: Starting.String(), Session: sess,
		}); err != nil {
			return Launch{}, err
		}
		launch = Launch{Name: svc.Name, LaunchID: launchID, Session: sess}
		s.log.Info("service started in interactive session; exit status will not be tracked",
			"service", svc.Name, "session", sess)
	} else {
		runDir := filepath.Join(s.cfg.RunDir, svc.Name)
		if err := fileutil.EnsureDir(runDir); err != nil {
			s.states[svc.Name] = Stopped
			return Launch{}, err
		}
		h, err := proc.Spawn(proc.SpawnConfig{
			Name:   svc.Name,
			Path:   svc.ExecPath,
			Args:   args,
			Env:    svc.Env,
			RunDir: runDir,
			Detach: true,
			Logger: s.log,
		})
		if err != nil {
			s.states[svc.Name] = Stopped
			return Launch{}, fmt.Errorf("spawn %s: %w", svc.Name, err)
		}
		if err := pidfile.New(svc.PIDFile).Write(ctx, h.Pid()); err != nil {
			// Without a pid file a later stop cannot find the daemon;
			// take it back down rather than leak it.
			_ = h.Stop(0)
			h.Close()
			s.states[svc.Name] = Stopped
			return Launch{}, err
		}
		if err := s.reg.Put(ctx, registry.Record{
			Name: svc.Name, LaunchID: launchID, PID: h.Pid(), State: Starting.String(),
		}); err != nil {
			return Launch{}, err
		}
		s.owned[svc.Name] = &running{handle: h, pidFile: svc.PIDFile}
		launch = Launch{Name: svc.Name, LaunchID: launchID, PID: h.Pid()}
		exited = h.Exited()
		s.log.Info("service started", "service", svc.Name, "pid", h.Pid())
	}

	ready, err := s.waitReady(ctx, svc, exited)
	if err != nil {
		// The daemon died before becoming ready; nothing to leave running.
		s.cleanupFailedStart(ctx, svc, launch)
		return Launch{}, fmt.Errorf("start %s: %w", svc.Name, err)
	}
	launch.Ready = ready

	s.states[svc.Name] = Running
	rec := registry.Record{
		Name: svc.Name, LaunchID: launchID, PID: launch.PID,
		State: Running.String(), Session: launch.Session,
	}
	if err := s.reg.Put(ctx, rec); err != nil {
		return Launch{}, err
	}
	return launch, nil
}

// waitReady polls the readiness checker. Returns (true, nil) when the
// service confirmed readiness, (false, nil) when the wait timed out or
// the checker misbehaved (both logged, both non-fatal), and an error
// only when the daemon exited before becoming ready.
func (s *Supervisor) waitReady(ctx context.Context, svc ServiceConfig, exited <-chan struct{}) (bool, error) {
	timeout := svc.ReadyTimeout
	if timeout <= 0 {
		timeout = s.cfg.ReadyTimeout
	}

	err := proc.WaitReady(ctx, proc.WaitReadyConfig{
		Interval: s.cfg.ReadyInterval,
		Timeout:  timeout,
		Name:     svc.Name,
		Logger:   s.log,
		Exited:   exited,
	}, func(checkCtx context.Context, _ int) (bool, error) {
		return s.cfg.Readiness.Check(checkCtx, svc)
	})
	if err == nil {
		s.log.Info("service ready", "service", svc.Name)
		return true, nil
	}
	if errors.Is(err, proc.ErrExitedEarly) {
		return false, err
	}
	if wait.Interrupted(err) {
		err = fmt.Errorf("%s: %w", svc.Name, ErrReadinessTimeout)
	}
	s.log.Warn(readinessWarning, "service", svc.Name, "timeout", timeout, "error", err)
	return false, nil
}

// cleanupFailedStart rolls back the side effects of a start whose daemon
// died before readiness: pid file, run record, handle and state.
func (s *Supervisor) cleanupFailedStart(ctx context.Context, svc ServiceConfig, launch Launch) {
	if r, ok := s.owned[svc.Name]; ok {
		_ = r.handle.Stop(time.Second) // already dead; reap and bound the drain
		r.handle.Close()
		delete(s.owned, svc.Name)
	}
	if launch.Session != "" {
		if err := s.cfg.Sessions.Kill(ctx, launch.Session); err != nil && !errors.Is(err, session.ErrNoSession) {
			s.log.Warn("session teardown after failed start", "session", launch.Session, "error", err)
		}
	}
	if !svc.Debug && svc.PIDFile != "" {
		if err := pidfile.New(svc.PIDFile).Remove(ctx); err != nil {
			s.log.Warn("pid file removal after failed start", "path", svc.PIDFile, "error", err)
		}
	}
	if err := s.reg.Delete(ctx, svc.Name); err != nil {
		s.log.Warn("run record removal after failed start", "service", svc.Name, "error", err)
	}
	s.states[svc.Name] = Stopped
}

// Stop terminates the configured service: SIGTERM to the recorded pid,
// then a blocking wait until the process is gone (unbounded unless the
// supervisor was configured with a stop timeout). Debug launches have
// their interactive session torn down instead. The pid file is removed
// best-effort at the end.
//
// Without a run record or pid file, Stop returns ErrNotRunning and
// delivers no signal; repeated stops stay idempotent that way.
func (s *Supervisor) Stop(ctx context.Context, svc ServiceConfig) error {
	if svc.Name == "" {
		return errors.New("service name must not be empty")
	}
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()

	// The registry record is the primary source, the pid file the
	// on-disk fallback for daemons recorded by other tooling.
	var pid int
	var sess string
	rec, recErr := s.reg.Get(ctx, svc.Name)
	if recErr == nil {
		pid, sess = rec.PID, rec.Session
	} else if !errors.Is(recErr, registry.ErrNoRecord) {
		return recErr
	}
	if pid == 0 && sess == "" && svc.PIDFile != "" {
		p, err := pidfile.New(svc.PIDFile).Read(ctx)
		switch {
		case err == nil:
			pid = p
		case errors.Is(err, pidfile.ErrNotFound):
			// fall through to the not-running check below
		default:
			return err
		}
	}
	if pid == 0 && sess == "" {
		return fmt.Errorf("%s: %w", svc.Name, ErrNotRunning)
	}

	s.states[svc.Name] = StopPending
	if recErr == nil {
		rec.State = StopPending.String()
		if err := s.reg.Put(ctx, rec); err != nil {
			return err
		}
	}

	if r, ok := s.owned[svc.Name]; ok {
		err := r.handle.Stop(s.cfg.StopTimeout)
		r.handle.Close()
		delete(s.owned, svc.Name)
		if err != nil {
			return fmt.Errorf("stop %s: %w", svc.Name, err)
		}
	} else if pid > 0 && proc.Alive(pid) {
		if err := proc.Terminate(pid); err != nil {
			return fmt.Errorf("stop %s: %w", svc.Name, err)
		}
		if err := proc.WaitGone(ctx, pid, s.cfg.StopTimeout); err != nil {
			return fmt.Errorf("stop %s: %w", svc.Name, err)
		}
	}

	if sess != "" {
		if err := s.cfg.Sessions.Kill(ctx, sess); err != nil && !errors.Is(err, session.ErrNoSession) {
			s.log.Warn("interactive session teardown", "session", sess, "error", err)
		}
	}

	// Best-effort: a pid file that survives here only costs a spurious
	// ErrNotRunning probe on the next stop.
	if svc.PIDFile != "" {
		if err := pidfile.New(svc.PIDFile).Remove(ctx); err != nil {
			s.log.Warn("pid file removal", "path", svc.PIDFile, "error", err)
		}
	}
	if err := s.reg.Delete(ctx, svc.Name); err != nil {
		return err
	}
	s.states[svc.Name] = Stopped
	s.log.Info("service stopped", "service", svc.Name)
	return nil
}

// Status returns the reconciled view of one service. A name with no
// record reports Stopped; a record whose process or session has died
// since it was written also reports Stopped.
func (s *Supervisor) Status(ctx context.Context, name string) (Status, error) {
	if err := s.lock(ctx); err != nil {
		return Status{}, err
	}
	defer s.unlock()
	return s.statusLocked(ctx, name)
}

func (s *Supervisor) statusLocked(ctx context.Context, name string) (Status, error) {
	rec, err := s.reg.Get(ctx, name)
	if err != nil {
		if errors.Is(err, registry.ErrNoRecord) {
			return Status{Name: name, State: Stopped}, nil
		}
		return Status{}, err
	}
	st := ParseRunState(rec.State)
	if !s.recordLive(ctx, rec) {
		st = Stopped
	}
	return Status{
		Name:      rec.Name,
		State:     st,
		PID:       rec.PID,
		LaunchID:  rec.LaunchID,
		Session:   rec.Session,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

// List returns the status of every service with a run record.
func (s *Supervisor) List(ctx context.Context) ([]Status, error) {
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()

	recs, err := s.reg.List(ctx)
	if err != nil {
		return nil, err
	}
	statuses := make([]Status, 0, len(recs))
	for _, rec := range recs {
		st, err := s.statusLocked(ctx, rec.Name)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// Shutdown stops every daemon this supervisor process spawned and closes
// the registry. Daemons recorded on disk but spawned elsewhere are left
// running; they belong to whoever started them.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()

	var g errgroup.Group
	for name, r := range s.owned {
		name, r := name, r
		g.Go(func() error {
			err := r.handle.Stop(s.cfg.StopTimeout)
			r.handle.Close()
			if err != nil {
				return fmt.Errorf("stop %s: %w", name, err)
			}
			if err := pidfile.New(r.pidFile).Remove(ctx); err != nil {
				return err
			}
			return s.reg.Delete(ctx, name)
		})
	}
	err := g.Wait()
	clear(s.owned)
	clear(s.states)

	if closeErr := s.reg.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("close registry: %w", closeErr)
	}
	return err
}
