//go:build unix

package job

import (
	"os/exec"
	"syscall"
)

// setProcessGroup configures the command to run in its own process
// group so that timeouts can signal the whole tree.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminateProcessGroup sends SIGTERM to the entire process group.
func terminateProcessGroup(cmd *exec.Cmd) error {
	return signalProcessGroup(cmd, syscall.SIGTERM)
}

// killProcessGroup sends SIGKILL to the entire process group.
func killProcessGroup(cmd *exec.Cmd) error {
	return signalProcessGroup(cmd, syscall.SIGKILL)
}

func signalProcessGroup(cmd *exec.Cmd, sig syscall.Signal) error {
	if cmd.Process == nil {
		return nil
	}
	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	if err != nil {
		return cmd.Process.Signal(sig)
	}
	return syscall.Kill(-pgid, sig)
}

// exitCodeFromError extracts the exit code from an exec.ExitError.
func exitCodeFromError(exitErr *exec.ExitError) (int, bool) {
	waitStatus, ok := exitErr.Sys().(syscall.WaitStatus)
	if ok {
		return waitStatus.ExitStatus(), true
	}
	return 0, false
}
