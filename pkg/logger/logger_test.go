package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "server.log")

	log, err := New(Config{Level: "debug", Format: "json", OutputPath: path, MaxSizeMB: 1})
	require.NoError(t, err)

	log.Info("hello", zap.String("job", "abc"))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "abc", entry["job"])
	assert.Contains(t, entry, "timestamp")
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	log, err := New(Config{Level: "loud", OutputPath: "stderr"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zap.DebugLevel))
	assert.True(t, log.Core().Enabled(zap.InfoLevel))
}

func TestNewMultiLogger_RequiresDir(t *testing.T) {
	_, err := NewMultiLogger(MultiLoggerConfig{})
	assert.Error(t, err)
}

func TestMultiLogger_Categories(t *testing.T) {
	dir := t.TempDir()
	ml, err := NewMultiLogger(MultiLoggerConfig{Level: "info", LogsDir: dir})
	require.NoError(t, err)

	ml.LogDownloadEvent("download_started", zap.String("id", "job-1"))
	ml.LogAppError("spawn failed", zap.String("id", "job-1"))
	// info events never reach the error file
	ml.Error().Info("ignored")
	require.NoError(t, ml.Close())

	download, err := os.ReadFile(ml.CategoryLogPath(CategoryDownload))
	require.NoError(t, err)
	assert.Contains(t, string(download), `"msg":"download_started"`)
	assert.Contains(t, string(download), `"id":"job-1"`)

	errorsLog, err := os.ReadFile(ml.CategoryLogPath(CategoryError))
	require.NoError(t, err)
	assert.Contains(t, string(errorsLog), "spawn failed")
	assert.NotContains(t, string(errorsLog), "ignored")
}
