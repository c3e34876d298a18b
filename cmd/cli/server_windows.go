//go:build windows

package main

import (
	"os/exec"
	"syscall"
)

// DETACHED_PROCESS from the Win32 process creation flags
const detachedProcess = 0x00000008

// detachServer starts an auto-started cyberstream-server without a console
// and outside the CLI's Ctrl-C group
func detachServer(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | detachedProcess,
	}
}
