package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.NotNil(t, config)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, 8000, config.Server.Port)
	assert.Equal(t, []string{"*"}, config.Server.AllowedOrigins)
	assert.Equal(t, "yt-dlp", config.Extractor.Binary)
	assert.True(t, config.Extractor.InsecureTransport)
	assert.True(t, config.Extractor.GeoBypass)
	assert.Equal(t, "ffmpeg", config.Remux.Binary)
	assert.Equal(t, RemuxAuto, config.Remux.Mode)
	assert.Equal(t, []string{"android", "web", "ios"}, config.Metadata.PersonaOrder)
	assert.Equal(t, 45*time.Second, config.Metadata.AttemptTimeout)
	assert.Equal(t, "android", config.Download.Persona)
	assert.Equal(t, 1024*1024, config.Download.ChunkSize)
	assert.Equal(t, 2*time.Hour, config.Download.ProcessTimeout)
	assert.Equal(t, "info", config.Logging.Level)
}

func TestValidateRemuxMode(t *testing.T) {
	assert.True(t, ValidateRemuxMode(RemuxAuto))
	assert.True(t, ValidateRemuxMode(RemuxEnabled))
	assert.True(t, ValidateRemuxMode(RemuxDisabled))
	assert.False(t, ValidateRemuxMode("sometimes"))
}
