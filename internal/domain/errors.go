package domain

import "errors"

var (
	ErrURLRequired       = errors.New("URL is required")
	ErrInvalidQuality    = errors.New("invalid quality")
	ErrSpawnFailed       = errors.New("failed to start extractor")
	ErrExtractionFailed  = errors.New("extractor exited with error")
	ErrProcessTimeout    = errors.New("extractor process timed out")
	ErrStreamCancelled   = errors.New("stream cancelled by client")
	ErrAllPersonasFailed = errors.New("all client personas failed")
)

// ExitCode extracts a process exit code from an error chain.
// It returns 0 for nil and -1 when no exit code is available.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	return -1
}
