//go:build !windows

package infrastructure

import (
	"errors"
	"os/exec"
	"syscall"
)

// configureProcessGroup puts the child in a new process group so that
// helpers it spawns (ffmpeg) die with it
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
	cmd.Cancel = func() error {
		return killProcessGroup(cmd)
	}
}

func killProcessGroup(cmd *exec.Cmd) error {
	err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	if errors.Is(err, syscall.ESRCH) {
		// already gone
		return nil
	}
	return err
}
