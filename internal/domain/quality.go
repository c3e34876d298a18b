package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// QualityLabel is the user-facing quality selection
type QualityLabel string

const (
	QualityBest  QualityLabel = "best"
	Quality1080p QualityLabel = "1080p"
	Quality720p  QualityLabel = "720p"
	Quality480p  QualityLabel = "480p"
	QualityMP3   QualityLabel = "mp3"
)

// QualityLabels lists every accepted label in display order
var QualityLabels = []QualityLabel{QualityBest, Quality1080p, Quality720p, Quality480p, QualityMP3}

// SourceDomain identifies the site a media URL belongs to
type SourceDomain string

const (
	DomainGeneric  SourceDomain = "generic"
	DomainYouTube  SourceDomain = "youtube"
	DomainFacebook SourceDomain = "facebook"
	DomainTikTok   SourceDomain = "tiktok"
)

// QualityRequest is the resolver input for one download
type QualityRequest struct {
	Label  QualityLabel
	Domain SourceDomain
}

// NewQualityRequest builds a request for the given URL and label
func NewQualityRequest(rawURL string, label QualityLabel) QualityRequest {
	return QualityRequest{
		Label:  label,
		Domain: DetectSourceDomain(rawURL),
	}
}

// ParseQualityLabel validates a quality query value. Empty means best.
func ParseQualityLabel(s string) (QualityLabel, error) {
	if s == "" {
		return QualityBest, nil
	}
	label := QualityLabel(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range QualityLabels {
		if label == known {
			return label, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidQuality, s)
}

// IsAudioOnly reports whether the label requests audio without video
func (q QualityLabel) IsAudioOnly() bool {
	return q == QualityMP3
}

// MaxHeight returns the pixel height ceiling for the label, 0 for best and mp3
func (q QualityLabel) MaxHeight() int {
	switch q {
	case Quality1080p:
		return 1080
	case Quality720p:
		return 720
	case Quality480p:
		return 480
	default:
		return 0
	}
}

// IsHD reports whether the label asks for an HD tier (720p or above)
func (q QualityLabel) IsHD() bool {
	return q == Quality1080p || q == Quality720p
}

var domainHosts = []struct {
	domain SourceDomain
	hosts  []string
}{
	{DomainYouTube, []string{"youtube.com", "youtu.be"}},
	{DomainFacebook, []string{"facebook.com", "fb.watch"}},
	{DomainTikTok, []string{"tiktok.com"}},
}

// DetectSourceDomain classifies a media URL by host.
// Unparseable input falls back to substring matching.
func DetectSourceDomain(rawURL string) SourceDomain {
	host := ""
	if u, err := url.Parse(strings.TrimSpace(rawURL)); err == nil && u.Host != "" {
		host = strings.ToLower(u.Hostname())
	}

	for _, entry := range domainHosts {
		for _, h := range entry.hosts {
			if host != "" {
				if host == h || strings.HasSuffix(host, "."+h) {
					return entry.domain
				}
				continue
			}
			if strings.Contains(strings.ToLower(rawURL), h) {
				return entry.domain
			}
		}
	}
	return DomainGeneric
}
