// Package svcsup supervises long-running daemon processes: it prepares
// the host, launches a daemon, waits for it to report readiness and
// later tears it down cleanly.
//
// svcsup replaces the classic rc-script lifecycle (pid file, SIGTERM,
// poll-until-ready) with a durable run registry that is reconciled
// against the live system on startup, so a stale pid file or a crashed
// daemon never wedges the next start.
//
// # Basic Usage
//
//	import "github.com/giantswarm/svcsup"
//
//	ctx := context.Background()
//
//	sup, err := svcsup.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sup.Shutdown(ctx)
//
//	launch, err := sup.Start(ctx, svcsup.ServiceConfig{
//	    Name:        "middleware",
//	    ExecPath:    "/usr/sbin/middleware",
//	    OverlayDirs: []string{"/usr/local/lib/middleware-plugins"},
//	    PIDFile:     "/var/run/middleware.pid",
//	    ReadyAddr:   "127.0.0.1:6000",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !launch.Ready {
//	    // The daemon is up but did not confirm readiness in time.
//	}
//
// # Launch Modes
//
// A supervised launch detaches the daemon into its own session, records
// its pid in a pid file and captures stdout/stderr into the run
// directory. A debug launch (ServiceConfig.Debug) runs the daemon in the
// foreground of a named tmux session instead, where an operator can
// attach to it; exit status is not tracked in that mode.
//
// # Readiness
//
// Start blocks until the readiness checker confirms the daemon is up or
// the readiness timeout elapses. A timeout is deliberately non-fatal:
// the daemon is left running, a prominent warning is logged and the
// returned Launch carries Ready=false. A daemon that exits before
// becoming ready is a start failure and is rolled back.
//
// # Stopping
//
// Stop signals SIGTERM and blocks until the process is gone; the wait is
// unbounded by default, matching rc stop semantics (use WithStopTimeout
// to bound it with a SIGKILL escalation). Stopping a service that is not
// running returns ErrNotRunning without delivering any signal, so
// repeated stops are harmless.
package svcsup
