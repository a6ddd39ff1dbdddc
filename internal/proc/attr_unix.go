//go:build unix && !linux

package proc

import (
	"os/exec"
	"syscall"
)

// applySysProcAttr sets process attributes on non-Linux Unix platforms.
// Detached daemons get their own session. Pdeathsig is Linux-only, so
// attached launches carry no extra attributes here.
func applySysProcAttr(cmd *exec.Cmd, detach bool) {
	if detach {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	}
}
