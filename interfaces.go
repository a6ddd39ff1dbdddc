package svcsup

import "github.com/giantswarm/svcsup/internal/core"

// The capability interfaces the supervisor delegates host work to.
// The supervisor itself never mounts filesystems, configures interfaces,
// probes readiness protocols or drives a terminal multiplexer; it calls
// these collaborators at the defined lifecycle points.
type (
	// Mounter prepares the filesystems a daemon expects before launch.
	Mounter = core.Mounter

	// NetworkConfigurator prepares the network interfaces a daemon
	// expects before launch, typically the loopback interface.
	NetworkConfigurator = core.NetworkConfigurator

	// ReadinessChecker performs a single readiness probe attempt against
	// a service. The supervisor polls it until ready or timeout.
	ReadinessChecker = core.ReadinessChecker

	// SessionRunner manages the named interactive sessions used by debug
	// launches.
	SessionRunner = core.SessionRunner
)

// TCPChecker is the default ReadinessChecker: a service is ready once
// its configured ReadyAddr accepts TCP connections. A service with no
// ReadyAddr is considered immediately ready.
type TCPChecker = core.TCPChecker

// CommandChecker is a ReadinessChecker that shells out to an external
// readiness client once per probe; exit status zero means ready. Use it
// for daemons whose readiness protocol has its own client, like a
// control socket's wait-ready subcommand.
type CommandChecker = core.CommandChecker

// ServiceConfig describes one daemon the supervisor manages.
type ServiceConfig = core.ServiceConfig

// Launch describes a completed start. Session is set only for debug
// launches, PID only for supervised ones. Ready is false when the
// readiness wait timed out.
type Launch = core.Launch

// Status is the reconciled view of one service: the persisted run
// record cross-checked against the live system.
type Status = core.Status

// RunState is the lifecycle state of one supervised service.
type RunState = core.RunState

// The RunState values, in lifecycle order.
const (
	Stopped     = core.Stopped
	Starting    = core.Starting
	Running     = core.Running
	StopPending = core.StopPending
)
