package infrastructure

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// execProcess is a running yt-dlp child with piped stdout and stderr
type execProcess struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser
}

// startProcess spawns binary in its own process group. The group is
// killed when ctx is done; killGrace bounds how long Wait keeps the
// pipes open after that.
func startProcess(ctx context.Context, binary string, args []string, killGrace time.Duration) (*execProcess, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	configureProcessGroup(cmd)
	cmd.WaitDelay = killGrace

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &execProcess{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

func (p *execProcess) Stdout() io.Reader { return p.stdout }

func (p *execProcess) Stderr() io.Reader { return p.stderr }

// Wait returns *exec.ExitError on a non-zero exit, which carries ExitCode()
func (p *execProcess) Wait() error {
	return p.cmd.Wait()
}

// Terminate kills the whole process group. Safe to call more than once.
func (p *execProcess) Terminate() error {
	if p.cmd.Process == nil {
		return nil
	}
	return killProcessGroup(p.cmd)
}

func (p *execProcess) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}
