//go:build !windows

package main

import (
	"os/exec"
	"syscall"
)

// detachServer puts an auto-started cyberstream-server in its own session,
// so a Ctrl-C aimed at the CLI does not take the server down with it
func detachServer(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
}
