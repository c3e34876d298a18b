package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sourcegraph/conc"
	"github.com/yourusername/cyberstream-go/internal/domain"
	"github.com/yourusername/cyberstream-go/internal/infrastructure"
	"github.com/yourusername/cyberstream-go/pkg/logger"
	"go.uber.org/zap"
)

// StreamProxy relays an extractor's stdout to an HTTP response while the
// process is still running
type StreamProxy struct {
	extractor  domain.Extractor
	capability domain.Capability
	persona    domain.ClientPersona
	config     domain.DownloadConfig
	logger     *zap.Logger
	events     *logger.MultiLogger // optional categorized job log

	mu      sync.Mutex
	closing bool
	active  sync.WaitGroup
	running map[string]domain.MediaProcess
}

// StreamResult summarizes a finished stream
type StreamResult struct {
	JobID       string
	State       domain.StreamState
	BytesSent   int64
	ExitCode    int
	Diagnostics string
}

// NewStreamProxy creates a new streaming proxy
func NewStreamProxy(
	extractor domain.Extractor,
	capability domain.Capability,
	persona domain.ClientPersona,
	config domain.DownloadConfig,
	logger *zap.Logger,
	events *logger.MultiLogger,
) *StreamProxy {
	if config.ChunkSize < 1 {
		config.ChunkSize = domain.DefaultChunkSize
	}
	if config.DiagnosticsLimit < 1 {
		config.DiagnosticsLimit = domain.DefaultConfig().Download.DiagnosticsLimit
	}
	if config.KillGracePeriod <= 0 {
		config.KillGracePeriod = domain.DefaultConfig().Download.KillGracePeriod
	}
	return &StreamProxy{
		extractor:  extractor,
		capability: capability,
		persona:    persona,
		config:     config,
		logger:     logger,
		events:     events,
		running:    make(map[string]domain.MediaProcess),
	}
}

// Prepare validates the request and resolves it into a job. Nothing is
// spawned here, so a validation error can still become a 400.
func (p *StreamProxy) Prepare(url, quality string) (*domain.DownloadJob, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, domain.ErrURLRequired
	}

	label, err := domain.ParseQualityLabel(quality)
	if err != nil {
		return nil, err
	}

	job := domain.NewDownloadJob(url, label, p.capability, p.persona)

	p.logger.Info("Starting download",
		zap.String("download_id", job.ID),
		zap.String("url", job.URL),
		zap.String("quality", string(label)),
		zap.String("domain", string(job.Quality.Domain)),
		zap.String("format", job.Format.String()),
		zap.Bool("remux", p.capability.RemuxAvailable))

	return job, nil
}

// Stream spawns the extractor for job and copies its output into w.
// Headers are written with the first chunk, so a failure before any byte
// leaves w untouched and the caller can still answer with an error status.
func (p *StreamProxy) Stream(ctx context.Context, job *domain.DownloadJob, w http.ResponseWriter) (*StreamResult, error) {
	if !p.begin() {
		err := fmt.Errorf("%w: server is shutting down", domain.ErrSpawnFailed)
		job.MarkFailed(err)
		p.logEvent("download_failed", job)
		return p.result(job), err
	}
	defer p.active.Done()

	procCtx, cancel := p.processContext(ctx)
	defer cancel()

	proc, err := p.extractor.Start(procCtx, job)
	if err != nil {
		if !errors.Is(err, domain.ErrSpawnFailed) {
			err = fmt.Errorf("%w: %v", domain.ErrSpawnFailed, err)
		}
		job.MarkFailed(err)
		p.logger.Error("Failed to spawn extractor",
			zap.String("download_id", job.ID),
			zap.Error(err))
		p.logEvent("download_failed", job)
		return p.result(job), err
	}

	job.MarkSpawned()
	p.logEvent("download_started", job, zap.Int("pid", proc.Pid()))

	p.attach(job.ID, proc)
	defer p.detach(job.ID)

	// client disconnects and timeouts kill the process group
	stop := context.AfterFunc(procCtx, func() {
		_ = proc.Terminate()
	})
	defer stop()

	diagnostics := newTailBuffer(p.config.DiagnosticsLimit)
	var drain conc.WaitGroup
	drain.Go(func() {
		_, _ = io.Copy(diagnostics, proc.Stderr())
	})

	pumpErr := p.pump(job, proc.Stdout(), w)
	if pumpErr != nil {
		_ = proc.Terminate()
	}
	p.awaitDrain(job, proc, &drain)

	job.MarkFinalizing()
	waitErr := proc.Wait()
	job.ExitCode = domain.ExitCode(waitErr)
	job.Diagnostics = diagnostics.String()

	var writeErr *clientWriteError
	switch {
	case pumpErr == nil && waitErr == nil:
		return p.succeed(w, job), nil

	case errors.As(pumpErr, &writeErr) || ctx.Err() != nil || p.isClosing():
		job.MarkCancelled()
		p.logger.Info("Download cancelled",
			zap.String("download_id", job.ID),
			zap.Int64("bytes_sent", job.BytesSent))
		p.logEvent("download_cancelled", job)
		return p.result(job), domain.ErrStreamCancelled

	case errors.Is(procCtx.Err(), context.DeadlineExceeded):
		return p.fail(job, fmt.Errorf("%w after %s", domain.ErrProcessTimeout, p.config.ProcessTimeout))

	case pumpErr != nil:
		return p.fail(job, fmt.Errorf("failed to read extractor output: %w", pumpErr))

	default:
		return p.fail(job, p.extractionError(job, waitErr))
	}
}

// awaitDrain waits for stderr to close. A grandchild such as the remuxer can
// hold stderr open after stdout ends; after the kill grace period the whole
// process group is terminated so finalization cannot hang.
func (p *StreamProxy) awaitDrain(job *domain.DownloadJob, proc domain.MediaProcess, drain *conc.WaitGroup) {
	drained := make(chan struct{})
	go func() {
		drain.Wait()
		close(drained)
	}()

	timer := time.NewTimer(p.config.KillGracePeriod)
	defer timer.Stop()

	select {
	case <-drained:
	case <-timer.C:
		p.logger.Warn("Extractor stderr still open after output ended, terminating process group",
			zap.String("download_id", job.ID),
			zap.Duration("grace", p.config.KillGracePeriod))
		_ = proc.Terminate()
		<-drained
	}
}

// Shutdown terminates every running extractor and waits for its stream to
// finish. Streams requested afterwards fail without spawning.
func (p *StreamProxy) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closing = true
	procs := make([]domain.MediaProcess, 0, len(p.running))
	for _, proc := range p.running {
		procs = append(procs, proc)
	}
	p.mu.Unlock()

	if len(procs) > 0 {
		p.logger.Info("Terminating active downloads", zap.Int("count", len(procs)))
	}
	for _, proc := range procs {
		_ = proc.Terminate()
	}

	done := make(chan struct{})
	go func() {
		p.active.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for active downloads: %w", ctx.Err())
	}
}

// begin registers a stream unless Shutdown has started
func (p *StreamProxy) begin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closing {
		return false
	}
	p.active.Add(1)
	return true
}

func (p *StreamProxy) attach(id string, proc domain.MediaProcess) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closing {
		// Shutdown already took its snapshot
		_ = proc.Terminate()
		return
	}
	p.running[id] = proc
}

func (p *StreamProxy) detach(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.running, id)
}

func (p *StreamProxy) isClosing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closing
}

// pump alternates read and write through a single chunk buffer, so a slow
// client slows down reads from the child
func (p *StreamProxy) pump(job *domain.DownloadJob, stdout io.Reader, w http.ResponseWriter) error {
	buf := make([]byte, p.config.ChunkSize)
	flusher, _ := w.(http.Flusher)

	for {
		n, readErr := stdout.Read(buf)
		if n > 0 {
			if !job.HasStarted() {
				p.commitHeaders(w, job)
				job.MarkStreaming()
				p.logger.Debug("First chunk received",
					zap.String("download_id", job.ID),
					zap.String("container", mimetype.Detect(buf[:n]).String()))
				p.logEvent("download_streaming", job)
			}

			if _, err := w.Write(buf[:n]); err != nil {
				return &clientWriteError{err: err}
			}
			job.BytesSent += int64(n)
			if flusher != nil {
				flusher.Flush()
			}
		}

		if errors.Is(readErr, io.EOF) {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

func (p *StreamProxy) commitHeaders(w http.ResponseWriter, job *domain.DownloadJob) {
	h := w.Header()
	h.Set("Content-Type", "application/octet-stream")
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", job.Filename))
	h.Set("X-Download-Id", job.ID)
	w.WriteHeader(http.StatusOK)
}

func (p *StreamProxy) succeed(w http.ResponseWriter, job *domain.DownloadJob) *StreamResult {
	if !job.HasStarted() {
		// nothing was printed but the run succeeded
		p.commitHeaders(w, job)
	}
	job.MarkSucceeded()
	p.logger.Info("Download completed",
		zap.String("download_id", job.ID),
		zap.Int64("bytes_sent", job.BytesSent))
	p.logEvent("download_succeeded", job)
	return p.result(job)
}

// fail records a failure. After the first byte the client only sees a
// truncated body, so the error log is the sole record.
func (p *StreamProxy) fail(job *domain.DownloadJob, err error) (*StreamResult, error) {
	job.MarkFailed(err)

	fields := []zap.Field{
		zap.String("download_id", job.ID),
		zap.String("url", job.URL),
		zap.String("state", string(job.State)),
		zap.Int("exit_code", job.ExitCode),
		zap.Int64("bytes_sent", job.BytesSent),
		zap.String("diagnostics", job.Diagnostics),
		zap.Error(err),
	}
	if job.State == domain.StateFailedAfterStart {
		p.logger.Error("Download failed after streaming started", fields...)
	} else {
		p.logger.Error("Download failed before streaming started", fields...)
	}
	if p.events != nil {
		p.events.LogAppError("download failed", fields...)
	}
	p.logEvent("download_failed", job)

	return p.result(job), err
}

func (p *StreamProxy) extractionError(job *domain.DownloadJob, waitErr error) error {
	if line := infrastructure.LastErrorLine([]byte(job.Diagnostics)); line != "" {
		return fmt.Errorf("%w (exit code %d): %s", domain.ErrExtractionFailed, job.ExitCode, line)
	}
	return fmt.Errorf("%w (exit code %d): %v", domain.ErrExtractionFailed, job.ExitCode, waitErr)
}

func (p *StreamProxy) processContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.config.ProcessTimeout > 0 {
		return context.WithTimeout(ctx, p.config.ProcessTimeout)
	}
	return context.WithCancel(ctx)
}

func (p *StreamProxy) result(job *domain.DownloadJob) *StreamResult {
	return &StreamResult{
		JobID:       job.ID,
		State:       job.State,
		BytesSent:   job.BytesSent,
		ExitCode:    job.ExitCode,
		Diagnostics: job.Diagnostics,
	}
}

func (p *StreamProxy) logEvent(event string, job *domain.DownloadJob, extra ...zap.Field) {
	if p.events == nil {
		return
	}
	fields := append([]zap.Field{
		zap.String("download_id", job.ID),
		zap.String("url", job.URL),
		zap.String("quality", string(job.Quality.Label)),
		zap.String("format", job.Format.String()),
		zap.String("state", string(job.State)),
		zap.Int64("bytes_sent", job.BytesSent),
		zap.Int("exit_code", job.ExitCode),
	}, extra...)
	p.events.LogDownloadEvent(event, fields...)
}

// clientWriteError marks a failed write to the HTTP client
type clientWriteError struct {
	err error
}

func (e *clientWriteError) Error() string { return "client write failed: " + e.err.Error() }

func (e *clientWriteError) Unwrap() error { return e.err }

// tailBuffer keeps the last limit bytes written to it
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(p)
	if n >= b.limit {
		b.buf = append(b.buf[:0], p[n-b.limit:]...)
		return n, nil
	}
	if over := len(b.buf) + n - b.limit; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	b.buf = append(b.buf, p...)
	return n, nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
