//go:build linux

package proc

import (
	"os/exec"
	"syscall"
)

// applySysProcAttr sets Linux process attributes for the launch mode.
// Detached daemons get their own session so they survive the supervisor
// exiting. Attached processes get Pdeathsig so the kernel SIGTERMs them
// if the supervisor dies abruptly, preventing orphans.
func applySysProcAttr(cmd *exec.Cmd, detach bool) {
	if detach {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
		return
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Pdeathsig: syscall.SIGTERM}
}
