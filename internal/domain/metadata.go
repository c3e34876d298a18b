package domain

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Placeholder values used when every persona fails
const (
	DegradedTitle     = "Video (Info Restricted)"
	DegradedAuthor    = "Unknown Channel"
	DegradedDuration  = "--:--"
	DegradedThumbnail = "https://i.ytimg.com/vi/mq_tK63TTEI/maxresdefault.jpg"
	UnknownVideoID    = "unknown"
)

// VideoMetadata is the normalized record returned by POST /api/info
type VideoMetadata struct {
	Title     string            `json:"title"`
	Author    string            `json:"author"`
	Duration  string            `json:"duration"`
	Thumbnail string            `json:"thumbnail"`
	ID        string            `json:"id"`
	Formats   []json.RawMessage `json:"formats"`
	Filesize  *int64            `json:"filesize,omitempty"`

	Degraded        bool   `json:"degraded,omitempty"`
	ExtractionError string `json:"extraction_error,omitempty"`
}

// NewDegradedMetadata builds the placeholder record. A YouTube URL with a
// v parameter still yields its real ID and thumbnail.
func NewDegradedMetadata(rawURL string, lastErr error) *VideoMetadata {
	md := &VideoMetadata{
		Title:     DegradedTitle,
		Author:    DegradedAuthor,
		Duration:  DegradedDuration,
		Thumbnail: DegradedThumbnail,
		ID:        UnknownVideoID,
		Formats:   []json.RawMessage{},
		Degraded:  true,
	}
	if lastErr != nil {
		md.ExtractionError = lastErr.Error()
	}

	if id := YouTubeVideoID(rawURL); id != "" {
		md.ID = id
		md.Thumbnail = fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", id)
	}
	return md
}

// YouTubeVideoID extracts the v query parameter from a YouTube URL
func YouTubeVideoID(rawURL string) string {
	if DetectSourceDomain(rawURL) != DomainYouTube {
		return ""
	}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(u.Query().Get("v"))
}
