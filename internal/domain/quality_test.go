package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQualityLabel(t *testing.T) {
	tests := []struct {
		input    string
		expected QualityLabel
	}{
		{"", QualityBest},
		{"best", QualityBest},
		{"1080p", Quality1080p},
		{"720P", Quality720p},
		{" 480p ", Quality480p},
		{"mp3", QualityMP3},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			label, err := ParseQualityLabel(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, label)
		})
	}
}

func TestParseQualityLabel_Invalid(t *testing.T) {
	_, err := ParseQualityLabel("4k")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidQuality)
}

func TestQualityLabel_MaxHeight(t *testing.T) {
	assert.Equal(t, 1080, Quality1080p.MaxHeight())
	assert.Equal(t, 720, Quality720p.MaxHeight())
	assert.Equal(t, 480, Quality480p.MaxHeight())
	assert.Equal(t, 0, QualityBest.MaxHeight())
	assert.Equal(t, 0, QualityMP3.MaxHeight())
}

func TestDetectSourceDomain(t *testing.T) {
	tests := []struct {
		url      string
		expected SourceDomain
	}{
		{"https://www.youtube.com/watch?v=abc123", DomainYouTube},
		{"https://m.youtube.com/watch?v=abc123", DomainYouTube},
		{"https://youtu.be/abc123", DomainYouTube},
		{"https://www.facebook.com/watch/?v=1234", DomainFacebook},
		{"https://fb.watch/xyz/", DomainFacebook},
		{"https://www.tiktok.com/@user/video/1", DomainTikTok},
		{"https://vimeo.com/1234", DomainGeneric},
		{"https://notyoutube.com/watch?v=1", DomainGeneric},
		{"youtube.com/watch?v=abc", DomainYouTube},
		{"", DomainGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectSourceDomain(tt.url))
		})
	}
}
