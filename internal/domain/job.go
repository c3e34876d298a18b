package domain

import (
	"time"

	"github.com/google/uuid"
)

// StreamState represents the current state of a download job
type StreamState string

const (
	StateResolving         StreamState = "resolving"
	StateSpawned           StreamState = "spawned"
	StateStreaming         StreamState = "streaming"
	StateFinalizing        StreamState = "finalizing"
	StateSucceeded         StreamState = "succeeded"
	StateFailedBeforeStart StreamState = "failed_before_start"
	StateFailedAfterStart  StreamState = "failed_after_start"
	StateCancelled         StreamState = "cancelled"
)

// Attachment names announced in Content-Disposition
const (
	VideoFilename = "video.mp4"
	AudioFilename = "audio.mp3"
)

// DownloadJob is the full description of one extractor invocation.
// It lives only as long as the HTTP request that created it.
type DownloadJob struct {
	ID           string           `json:"id"`
	URL          string           `json:"url"`
	Quality      QualityRequest   `json:"quality"`
	Format       FormatExpression `json:"format"`
	Persona      ClientPersona    `json:"-"`
	RemuxerPath  string           `json:"-"`
	Filename     string           `json:"filename"`
	State        StreamState      `json:"state"`
	BytesSent    int64            `json:"bytes_sent"`
	ExitCode     int              `json:"exit_code"`
	ErrorMessage string           `json:"error_message,omitempty"`
	Diagnostics  string           `json:"diagnostics,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	StartedAt    *time.Time       `json:"started_at,omitempty"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
}

// NewDownloadJob resolves the format and the per-site persona hints for a
// request and creates a job
func NewDownloadJob(rawURL string, label QualityLabel, capability Capability, persona ClientPersona) *DownloadJob {
	req := NewQualityRequest(rawURL, label)
	return &DownloadJob{
		ID:          uuid.New().String(),
		URL:         rawURL,
		Quality:     req,
		Format:      ResolveFormat(req, capability),
		Persona:     persona.ForDomain(req.Domain),
		RemuxerPath: capability.RemuxerPath,
		Filename:    AttachmentFilename(label),
		State:       StateResolving,
		CreatedAt:   time.Now(),
	}
}

// AttachmentFilename returns the generic filename for a quality label
func AttachmentFilename(label QualityLabel) string {
	if label.IsAudioOnly() {
		return AudioFilename
	}
	return VideoFilename
}

// MarkSpawned marks the extractor process as started
func (j *DownloadJob) MarkSpawned() {
	j.State = StateSpawned
	now := time.Now()
	j.StartedAt = &now
}

// MarkStreaming marks the first byte as forwarded
func (j *DownloadJob) MarkStreaming() {
	j.State = StateStreaming
}

// MarkFinalizing marks the output stream as exhausted
func (j *DownloadJob) MarkFinalizing() {
	j.State = StateFinalizing
}

// MarkSucceeded marks the job as completed with exit code zero
func (j *DownloadJob) MarkSucceeded() {
	j.State = StateSucceeded
	j.ExitCode = 0
	j.complete()
}

// MarkFailed records a failure. Whether the client already received
// bytes decides between the two failure states.
func (j *DownloadJob) MarkFailed(err error) {
	if j.BytesSent > 0 {
		j.State = StateFailedAfterStart
	} else {
		j.State = StateFailedBeforeStart
	}
	if err != nil {
		j.ErrorMessage = err.Error()
	}
	j.complete()
}

// MarkCancelled marks the job as aborted by the client
func (j *DownloadJob) MarkCancelled() {
	j.State = StateCancelled
	j.complete()
}

func (j *DownloadJob) complete() {
	now := time.Now()
	j.CompletedAt = &now
}

// IsTerminal checks if the job is in a terminal state
func (j *DownloadJob) IsTerminal() bool {
	switch j.State {
	case StateSucceeded, StateFailedBeforeStart, StateFailedAfterStart, StateCancelled:
		return true
	}
	return false
}

// HasStarted reports whether any byte reached the client
func (j *DownloadJob) HasStarted() bool {
	return j.BytesSent > 0
}
