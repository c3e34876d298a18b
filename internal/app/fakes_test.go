package app

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/yourusername/cyberstream-go/internal/domain"
)

// fakeExtractor is a hand-written extractor double
type fakeExtractor struct {
	mu          sync.Mutex
	inspectFunc func(ctx context.Context, url string, persona domain.ClientPersona) (*domain.VideoMetadata, error)
	startFunc   func(ctx context.Context, job *domain.DownloadJob) (domain.MediaProcess, error)
	personas    []domain.PersonaID
	started     []*domain.DownloadJob
}

func (f *fakeExtractor) Inspect(ctx context.Context, url string, persona domain.ClientPersona) (*domain.VideoMetadata, error) {
	f.mu.Lock()
	f.personas = append(f.personas, persona.ID)
	f.mu.Unlock()
	return f.inspectFunc(ctx, url, persona)
}

func (f *fakeExtractor) Start(ctx context.Context, job *domain.DownloadJob) (domain.MediaProcess, error) {
	f.mu.Lock()
	f.started = append(f.started, job)
	f.mu.Unlock()
	return f.startFunc(ctx, job)
}

func (f *fakeExtractor) inspected() []domain.PersonaID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.PersonaID(nil), f.personas...)
}

// exitError mimics *exec.ExitError
type exitError struct{ code int }

func (e exitError) Error() string { return "exit status" }
func (e exitError) ExitCode() int { return e.code }

// fakeProcess serves canned output. When stdout is a pipe, Terminate
// closes it the way a killed child closes its end.
type fakeProcess struct {
	stdout  io.Reader
	stderr  io.Reader
	waitErr error

	pipe           *io.PipeWriter
	stderrPipe     *io.PipeWriter
	exited         bool // Wait reports waitErr even after Terminate
	mu             sync.Mutex
	terminated     bool
	terminatedOnce sync.Once
	terminatedCh   chan struct{}
}

func newFakeProcess(stdout, stderr string, waitErr error) *fakeProcess {
	return &fakeProcess{
		stdout:       strings.NewReader(stdout),
		stderr:       strings.NewReader(stderr),
		waitErr:      waitErr,
		terminatedCh: make(chan struct{}),
	}
}

// newBlockingProcess never produces output on its own
func newBlockingProcess() *fakeProcess {
	r, w := io.Pipe()
	return &fakeProcess{
		stdout:       r,
		stderr:       strings.NewReader(""),
		pipe:         w,
		terminatedCh: make(chan struct{}),
	}
}

// newLingeringProcess ends stdout and exits cleanly but keeps stderr open
// until terminated, like a parent whose grandchild inherited stderr
func newLingeringProcess(stdout string) *fakeProcess {
	r, w := io.Pipe()
	return &fakeProcess{
		stdout:       strings.NewReader(stdout),
		stderr:       r,
		stderrPipe:   w,
		exited:       true,
		terminatedCh: make(chan struct{}),
	}
}

func (p *fakeProcess) Stdout() io.Reader { return p.stdout }
func (p *fakeProcess) Stderr() io.Reader { return p.stderr }
func (p *fakeProcess) Pid() int          { return 4242 }

func (p *fakeProcess) Wait() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.terminated && !p.exited {
		return exitError{code: -1}
	}
	return p.waitErr
}

func (p *fakeProcess) Terminate() error {
	p.mu.Lock()
	p.terminated = true
	p.mu.Unlock()
	p.terminatedOnce.Do(func() {
		if p.pipe != nil {
			p.pipe.Close()
		}
		if p.stderrPipe != nil {
			p.stderrPipe.Close()
		}
		close(p.terminatedCh)
	})
	return nil
}

func (p *fakeProcess) wasTerminated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminated
}

func startReturning(proc domain.MediaProcess) func(context.Context, *domain.DownloadJob) (domain.MediaProcess, error) {
	return func(context.Context, *domain.DownloadJob) (domain.MediaProcess, error) {
		return proc, nil
	}
}
