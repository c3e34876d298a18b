package domain

import (
	"context"
	"io"
)

// Extractor defines the interface to the external media extraction tool
type Extractor interface {
	// Inspect fetches metadata only, shaping the request with a persona
	Inspect(ctx context.Context, url string, persona ClientPersona) (*VideoMetadata, error)

	// Start launches a process writing the job's media to stdout.
	// The process is bound to ctx and terminated when it is done.
	Start(ctx context.Context, job *DownloadJob) (MediaProcess, error)
}

// MediaProcess is a running extractor whose output is being streamed.
// Stdout and Stderr must be read to EOF before Wait is called.
type MediaProcess interface {
	Stdout() io.Reader
	Stderr() io.Reader

	// Wait blocks until exit. A non-zero exit yields an error carrying
	// ExitCode() int.
	Wait() error

	// Terminate kills the process and anything it spawned
	Terminate() error

	Pid() int
}
