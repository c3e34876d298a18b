package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/cyberstream-go/internal/domain"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// isolate keeps the search paths away from any real config on the host
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolate(t)

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConfig(), config)
}

func TestLoadConfig_FromFile(t *testing.T) {
	isolate(t)
	path := writeConfigFile(t, `
server:
  port: 9000
  allowed_origins: ["https://cyberstream.example"]
extractor:
  binary: python3
  binary_args: ["-m", "yt_dlp"]
  geo_bypass: false
remux:
  mode: disabled
metadata:
  persona_order: [web, ios]
  attempt_timeout: 10s
download:
  persona: web
  process_timeout: 30m
logging:
  logs_dir: $HOME/logs
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, []string{"https://cyberstream.example"}, config.Server.AllowedOrigins)
	assert.Equal(t, "python3", config.Extractor.Binary)
	assert.Equal(t, []string{"-m", "yt_dlp"}, config.Extractor.BinaryArgs)
	assert.False(t, config.Extractor.GeoBypass)
	assert.True(t, config.Extractor.InsecureTransport)
	assert.Equal(t, domain.RemuxDisabled, config.Remux.Mode)
	assert.Equal(t, []string{"web", "ios"}, config.Metadata.PersonaOrder)
	assert.Equal(t, 10*time.Second, config.Metadata.AttemptTimeout)
	assert.Equal(t, "web", config.Download.Persona)
	assert.Equal(t, 30*time.Minute, config.Download.ProcessTimeout)
	assert.Equal(t, domain.DefaultChunkSize, config.Download.ChunkSize)
	assert.Equal(t, filepath.Join(os.Getenv("HOME"), "logs"), config.Logging.LogsDir)
}

func TestLoadConfig_ShorterListsReplaceDefaults(t *testing.T) {
	isolate(t)

	config, err := LoadConfig(writeConfigFile(t, "metadata:\n  persona_order: [ios]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"ios"}, config.Metadata.PersonaOrder)

	t.Setenv("CYBERSTREAM_METADATA_PERSONA_ORDER", "web,android")
	config, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, []string{"web", "android"}, config.Metadata.PersonaOrder)
	assert.Equal(t, []string{"*"}, config.Server.AllowedOrigins)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("CYBERSTREAM_SERVER_PORT", "9001")
	t.Setenv("CYBERSTREAM_DOWNLOAD_PROCESS_TIMEOUT", "15m")

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 9001, config.Server.Port)
	assert.Equal(t, 15*time.Minute, config.Download.ProcessTimeout)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"port out of range", "server:\n  port: 70000\n"},
		{"unknown remux mode", "remux:\n  mode: sometimes\n"},
		{"unknown persona in order", "metadata:\n  persona_order: [android, desktop]\n"},
		{"duplicate persona in order", "metadata:\n  persona_order: [web, web]\n"},
		{"unknown download persona", "download:\n  persona: tv\n"},
		{"zero chunk size", "download:\n  chunk_size: 0\n"},
		{"negative timeout", "download:\n  process_timeout: -1s\n"},
		{"empty extractor binary", "extractor:\n  binary: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, err := LoadConfig(writeConfigFile(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	isolate(t)
	config := domain.DefaultConfig()
	config.Server.Port = 8123
	config.Metadata.PersonaOrder = []string{"ios", "android"}
	config.Download.ProcessTimeout = 45 * time.Minute
	config.Remux.Mode = domain.RemuxEnabled
	// nil slices come back empty, so set every list explicitly
	config.Extractor.BinaryArgs = []string{"-m", "yt_dlp"}

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveConfig(config, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config, loaded)
}
