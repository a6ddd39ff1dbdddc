package core

import (
	"context"
	"errors"
	"os/exec"

	"github.com/giantswarm/svcsup/internal/netutil"
)

// TCPChecker reports a service ready once its ReadyAddr accepts TCP
// connections. This is the default checker.
type TCPChecker struct{}

// Check probes svc.ReadyAddr. A service with no ReadyAddr configured is
// considered immediately ready; there is nothing to probe.
func (TCPChecker) Check(ctx context.Context, svc ServiceConfig) (bool, error) {
	if svc.ReadyAddr == "" {
		return true, nil
	}
	return netutil.ProbeTCP(ctx, svc.ReadyAddr), nil
}

// CommandChecker shells out to an external readiness client once per
// poll attempt; exit status zero means ready, non-zero means not yet.
// This wraps readiness protocols the supervisor knows nothing about,
// like a control client's wait-ready subcommand.
type CommandChecker struct {
	Path string
	Args []string
}

// Check runs the configured client. Failure to launch the client at all
// (as opposed to the client exiting non-zero) aborts the poll.
func (c CommandChecker) Check(ctx context.Context, _ ServiceConfig) (bool, error) {
	err := exec.CommandContext(ctx, c.Path, c.Args...).Run()
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, err
}
