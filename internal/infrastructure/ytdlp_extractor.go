package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/yourusername/cyberstream-go/internal/domain"
	"go.uber.org/zap"
)

// YTDLPExtractor implements domain.Extractor by invoking yt-dlp
type YTDLPExtractor struct {
	config    domain.ExtractorConfig
	killGrace time.Duration
	logger    *zap.Logger
}

// NewYTDLPExtractor creates a new yt-dlp backed extractor
func NewYTDLPExtractor(config domain.ExtractorConfig, killGrace time.Duration, logger *zap.Logger) *YTDLPExtractor {
	return &YTDLPExtractor{
		config:    config,
		killGrace: killGrace,
		logger:    logger,
	}
}

// ExtractorError is a non-zero yt-dlp exit, carrying the most relevant
// stderr line
type ExtractorError struct {
	Code    int
	Message string
}

func (e *ExtractorError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("yt-dlp exited with code %d", e.Code)
	}
	return e.Message
}

// ExitCode returns the process exit code
func (e *ExtractorError) ExitCode() int { return e.Code }

func (e *ExtractorError) Unwrap() error { return domain.ErrExtractionFailed }

// ytdlpInfo is the subset of `yt-dlp -J` output we pass on
type ytdlpInfo struct {
	Title          string            `json:"title"`
	Uploader       string            `json:"uploader"`
	DurationString string            `json:"duration_string"`
	Thumbnail      string            `json:"thumbnail"`
	ID             string            `json:"id"`
	Formats        []json.RawMessage `json:"formats"`
	Filesize       *float64          `json:"filesize"`
	FilesizeApprox *float64          `json:"filesize_approx"`
}

// Inspect runs yt-dlp in metadata mode with the given persona
func (e *YTDLPExtractor) Inspect(ctx context.Context, url string, persona domain.ClientPersona) (*domain.VideoMetadata, error) {
	args := e.buildInspectArgs(url, persona)

	e.logger.Debug("Inspecting media",
		zap.String("persona", string(persona.ID)),
		zap.String("command", ShellEscapeCommand(e.config.Binary, e.commandArgs(args)...)))

	cmd := exec.CommandContext(ctx, e.config.Binary, e.commandArgs(args)...)
	configureProcessGroup(cmd)
	cmd.WaitDelay = e.killGrace

	// Output keeps a bounded copy of stderr in ExitError.Stderr
	out, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("inspect with persona %s: %w", persona.ID, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ExtractorError{
				Code:    exitErr.ExitCode(),
				Message: LastErrorLine(exitErr.Stderr),
			}
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrSpawnFailed, err)
	}

	return parseInfo(out)
}

// Start spawns yt-dlp writing the job's media to stdout
func (e *YTDLPExtractor) Start(ctx context.Context, job *domain.DownloadJob) (domain.MediaProcess, error) {
	args := e.commandArgs(e.buildDownloadArgs(job))

	e.logger.Info("Spawning extractor",
		zap.String("download_id", job.ID),
		zap.String("format", job.Format.String()),
		zap.String("command", ShellEscapeCommand(e.config.Binary, args...)))

	proc, err := startProcess(ctx, e.config.Binary, args, e.killGrace)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSpawnFailed, err)
	}
	return proc, nil
}

// commandArgs prefixes configured binary args, e.g. `python3 -m yt_dlp`
func (e *YTDLPExtractor) commandArgs(args []string) []string {
	if len(e.config.BinaryArgs) == 0 {
		return args
	}
	full := make([]string, 0, len(e.config.BinaryArgs)+len(args))
	full = append(full, e.config.BinaryArgs...)
	return append(full, args...)
}

func (e *YTDLPExtractor) buildInspectArgs(url string, persona domain.ClientPersona) []string {
	args := []string{"-J", "--no-playlist", "--no-warnings", "--skip-download"}
	args = append(args, personaArgs(persona)...)
	args = append(args, e.policyArgs()...)
	// "--" keeps URLs starting with "-" from being read as options
	return append(args, "--", url)
}

func (e *YTDLPExtractor) buildDownloadArgs(job *domain.DownloadJob) []string {
	args := []string{
		"-f", job.Format.String(),
		"-o", "-",
		"--no-playlist",
		"--no-progress",
	}
	args = append(args, personaArgs(job.Persona)...)
	args = append(args, e.policyArgs()...)
	if job.RemuxerPath != "" {
		args = append(args, "--ffmpeg-location", job.RemuxerPath)
	}
	return append(args, "--", job.URL)
}

func personaArgs(persona domain.ClientPersona) []string {
	var args []string
	if persona.UserAgent != "" {
		args = append(args, "--user-agent", persona.UserAgent)
	}
	if persona.Referer != "" {
		args = append(args, "--referer", persona.Referer)
	}
	for _, ea := range persona.ExtractorArgs {
		args = append(args, "--extractor-args", ea)
	}
	return args
}

func (e *YTDLPExtractor) policyArgs() []string {
	var args []string
	if e.config.InsecureTransport {
		args = append(args, "--no-check-certificates")
	}
	if e.config.GeoBypass {
		args = append(args, "--geo-bypass")
	}
	if e.config.CookieFile != "" && fileExists(e.config.CookieFile) {
		args = append(args, "--cookies", e.config.CookieFile)
	}
	return args
}

func parseInfo(data []byte) (*domain.VideoMetadata, error) {
	var info ytdlpInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("%w: invalid metadata JSON: %v", domain.ErrExtractionFailed, err)
	}

	md := &domain.VideoMetadata{
		Title:     info.Title,
		Author:    info.Uploader,
		Duration:  info.DurationString,
		Thumbnail: info.Thumbnail,
		ID:        info.ID,
		Formats:   info.Formats,
	}
	if md.Formats == nil {
		md.Formats = []json.RawMessage{}
	}

	size := info.Filesize
	if size == nil || *size == 0 {
		size = info.FilesizeApprox
	}
	if size != nil && *size > 0 {
		n := int64(*size)
		md.Filesize = &n
	}
	return md, nil
}

// LastErrorLine picks the most useful line of yt-dlp stderr: the last
// "ERROR:" line, or else the last non-empty one
func LastErrorLine(stderr []byte) string {
	lines := bytes.Split(bytes.TrimSpace(stderr), []byte("\n"))
	fallback := ""
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(string(lines[i]))
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "ERROR:") {
			return line
		}
		if fallback == "" {
			fallback = line
		}
	}
	return fallback
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
