package main

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// errorMessage pulls the error and details fields out of a JSON error body
func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Error == "" {
		return strings.TrimSpace(string(body))
	}
	if payload.Details != "" {
		return payload.Error + ": " + payload.Details
	}
	return payload.Error
}

// attachmentFilename reads the filename parameter of a Content-Disposition
// header. Directory components are dropped.
func attachmentFilename(header, fallback string) string {
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return fallback
	}
	name := filepath.Base(params["filename"])
	if name == "." || name == ".." || name == "/" || name == "" {
		return fallback
	}
	return name
}

// saveDownload copies body to output, or stdout for "-". The server drops
// the connection when the extractor fails mid-stream, so a copy error means
// the file is incomplete and it is removed.
func saveDownload(body io.Reader, output string) (int64, error) {
	if output == "-" {
		return io.Copy(os.Stdout, body)
	}

	f, err := os.Create(output)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(output)
		return n, err
	}
	return n, nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
