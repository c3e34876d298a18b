package domain

import (
	"fmt"
	"strings"
)

// FormatExpression is a yt-dlp format selector. It is handed to the
// extractor as-is and never parsed back.
type FormatExpression string

func (f FormatExpression) String() string {
	return string(f)
}

// IsCombined reports whether the expression merges separate streams,
// which requires a remuxer on the host
func (f FormatExpression) IsCombined() bool {
	return strings.Contains(string(f), "+")
}

// IsAudioOnly reports whether every alternative prefers an audio stream
// and none carries a height constraint
func (f FormatExpression) IsAudioOnly() bool {
	s := string(f)
	return strings.HasPrefix(s, "bestaudio") && !strings.Contains(s, "height")
}

const (
	formatAudio = FormatExpression("bestaudio/best")
	formatBest  = FormatExpression("best")

	defaultSingleFileHeight = 1080
)

// ResolveFormat maps a quality request to a format expression.
// Without a remuxer the result always names a single pre-muxed file.
func ResolveFormat(req QualityRequest, capability Capability) FormatExpression {
	if req.Label.IsAudioOnly() {
		return formatAudio
	}
	if capability.RemuxAvailable {
		return resolveMerged(req)
	}
	return resolveSingleFile(req)
}

func resolveMerged(req QualityRequest) FormatExpression {
	switch req.Domain {
	case DomainFacebook:
		if req.Label.IsHD() {
			return "hd/bestvideo[height>=720]+bestaudio/best"
		}
		return "sd/bestvideo[height<=480]+bestaudio/best"
	case DomainTikTok:
		// TikTok rarely exposes split tracks
		return formatBest
	}

	h := req.Label.MaxHeight()
	if h == 0 {
		return formatBest
	}
	return FormatExpression(fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", h, h))
}

func resolveSingleFile(req QualityRequest) FormatExpression {
	switch req.Domain {
	case DomainFacebook:
		if req.Label.IsHD() {
			return "hd/best"
		}
		return "sd/best"
	case DomainTikTok:
		return formatBest
	}

	h := req.Label.MaxHeight()
	if h == 0 {
		h = defaultSingleFileHeight
	}
	return FormatExpression(fmt.Sprintf("best[ext=mp4][height<=%d]/best[ext=mp4]/best", h))
}
