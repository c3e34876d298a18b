package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/cyberstream-go/internal/app"
	"github.com/yourusername/cyberstream-go/internal/domain"
	"github.com/yourusername/cyberstream-go/web"
)

// mockExtractor is a testify mock of domain.Extractor
type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) Inspect(ctx context.Context, url string, persona domain.ClientPersona) (*domain.VideoMetadata, error) {
	args := m.Called(ctx, url, persona)
	md, _ := args.Get(0).(*domain.VideoMetadata)
	return md, args.Error(1)
}

func (m *mockExtractor) Start(ctx context.Context, job *domain.DownloadJob) (domain.MediaProcess, error) {
	args := m.Called(ctx, job)
	proc, _ := args.Get(0).(domain.MediaProcess)
	return proc, args.Error(1)
}

// cannedProcess replays fixed output
type cannedProcess struct {
	stdout  io.Reader
	stderr  io.Reader
	waitErr error
}

func (p *cannedProcess) Stdout() io.Reader { return p.stdout }
func (p *cannedProcess) Stderr() io.Reader { return p.stderr }
func (p *cannedProcess) Wait() error       { return p.waitErr }
func (p *cannedProcess) Terminate() error  { return nil }
func (p *cannedProcess) Pid() int          { return 1 }

type exitCodeError int

func (e exitCodeError) Error() string { return "exit status" }
func (e exitCodeError) ExitCode() int { return int(e) }

const testVideoURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func setupTestRouter(t *testing.T, extractor domain.Extractor) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	config := domain.DefaultConfig()
	config.Metadata.AttemptTimeout = time.Second
	personas, err := domain.PersonaSequence(config.Metadata.PersonaOrder)
	require.NoError(t, err)
	persona, err := domain.LookupPersona(domain.PersonaID(config.Download.Persona))
	require.NoError(t, err)

	capability := domain.Capability{RemuxAvailable: true, RemuxerPath: "/usr/bin/ffmpeg"}
	log := zap.NewNop()

	staticFS := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(staticFS, "index.html", []byte("<html>CyberStream</html>"), 0644))
	require.NoError(t, afero.WriteFile(staticFS, "script.js", []byte("console.log('hi')"), 0644))
	require.NoError(t, afero.WriteFile(staticFS, "docs/index.html", []byte("<html>docs</html>"), 0644))
	require.NoError(t, afero.WriteFile(staticFS, "assets/logo", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0644))

	return SetupRouter(Dependencies{
		Fetcher:    app.NewMetadataFetcher(extractor, personas, config.Metadata, log),
		Proxy:      app.NewStreamProxy(extractor, capability, persona, config.Download, log, nil),
		Capability: capability,
		Server:     config.Server,
		StaticFS:   staticFS,
		Version:    "test",
		Logger:     log,
	})
}

func perform(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func downloadURL(videoURL, quality string) string {
	q := url.Values{}
	if videoURL != "" {
		q.Set("url", videoURL)
	}
	if quality != "" {
		q.Set("quality", quality)
	}
	return "/api/download?" + q.Encode()
}

func TestHealth(t *testing.T) {
	r := setupTestRouter(t, &mockExtractor{})

	w := perform(r, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","version":"test","remux_available":true}`, w.Body.String())
}

func TestInfo_Success(t *testing.T) {
	extractor := &mockExtractor{}
	extractor.On("Inspect", mock.Anything, testVideoURL, mock.Anything).
		Return(&domain.VideoMetadata{Title: "Never Gonna Give You Up", Author: "Rick Astley", ID: "dQw4w9WgXcQ"}, nil).Once()
	r := setupTestRouter(t, extractor)

	w := perform(r, http.MethodPost, "/api/info", `{"url":"`+testVideoURL+`"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, "Never Gonna Give You Up", body["title"])
	assert.Equal(t, "Rick Astley", body["author"])
	assert.NotContains(t, body, "degraded")
	extractor.AssertExpectations(t)
}

func TestInfo_AllPersonasFail(t *testing.T) {
	extractor := &mockExtractor{}
	extractor.On("Inspect", mock.Anything, testVideoURL, mock.Anything).
		Return(nil, errors.New("ERROR: Sign in to confirm you're not a bot"))
	r := setupTestRouter(t, extractor)

	w := perform(r, http.MethodPost, "/api/info", `{"url":"`+testVideoURL+`"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, domain.DegradedTitle, body["title"])
	assert.Equal(t, domain.DegradedAuthor, body["author"])
	assert.Equal(t, "--:--", body["duration"])
	assert.Equal(t, "dQw4w9WgXcQ", body["id"])
	assert.Equal(t, "https://img.youtube.com/vi/dQw4w9WgXcQ/maxresdefault.jpg", body["thumbnail"])
	assert.Equal(t, []interface{}{}, body["formats"])
	assert.Equal(t, true, body["degraded"])
	assert.Equal(t, "ERROR: Sign in to confirm you're not a bot", body["extraction_error"])
	extractor.AssertNumberOfCalls(t, "Inspect", 3)
}

func TestInfo_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing url", `{}`},
		{"blank url", `{"url":"  "}`},
		{"invalid json", `{"url":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := &mockExtractor{}
			r := setupTestRouter(t, extractor)

			w := perform(r, http.MethodPost, "/api/info", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decodeJSON(t, w)["error"])
			extractor.AssertNotCalled(t, "Inspect", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestDownload_Streams(t *testing.T) {
	extractor := &mockExtractor{}
	extractor.On("Start", mock.Anything, mock.MatchedBy(func(job *domain.DownloadJob) bool {
		return job.URL == testVideoURL && job.Format == "bestvideo[height<=720]+bestaudio/best[height<=720]"
	})).Return(&cannedProcess{
		stdout: strings.NewReader("media-bytes"),
		stderr: strings.NewReader(""),
	}, nil).Once()
	r := setupTestRouter(t, extractor)

	w := perform(r, http.MethodGet, downloadURL(testVideoURL, "720p"), "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "media-bytes", w.Body.String())
	assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="video.mp4"`, w.Header().Get("Content-Disposition"))
	assert.NotEmpty(t, w.Header().Get("X-Download-Id"))
	extractor.AssertExpectations(t)
}

func TestDownload_BadRequestSpawnsNothing(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"missing url", downloadURL("", "best")},
		{"invalid quality", downloadURL(testVideoURL, "4k")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := &mockExtractor{}
			r := setupTestRouter(t, extractor)

			w := perform(r, http.MethodGet, tt.target, "")

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decodeJSON(t, w)["error"])
			extractor.AssertNotCalled(t, "Start", mock.Anything, mock.Anything)
		})
	}
}

func TestDownload_FailureBeforeFirstByte(t *testing.T) {
	extractor := &mockExtractor{}
	extractor.On("Start", mock.Anything, mock.Anything).Return(&cannedProcess{
		stdout:  strings.NewReader(""),
		stderr:  strings.NewReader("ERROR: [youtube] dQw4w9WgXcQ: Requested format is not available\n"),
		waitErr: exitCodeError(1),
	}, nil)
	r := setupTestRouter(t, extractor)

	w := perform(r, http.MethodGet, downloadURL(testVideoURL, "1080p"), "")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, "Download failed", body["error"])
	assert.Contains(t, body["details"], "Requested format is not available")
	assert.Empty(t, w.Header().Get("Content-Disposition"))
}

func TestDownload_SpawnFailure(t *testing.T) {
	extractor := &mockExtractor{}
	extractor.On("Start", mock.Anything, mock.Anything).
		Return(nil, errors.New("exec: \"yt-dlp\": executable file not found in $PATH"))
	r := setupTestRouter(t, extractor)

	w := perform(r, http.MethodGet, downloadURL(testVideoURL, ""), "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to start download", decodeJSON(t, w)["error"])
}

func TestDownload_FailureAfterStartDropsConnection(t *testing.T) {
	partial := strings.Repeat("v", 4096)
	extractor := &mockExtractor{}
	extractor.On("Start", mock.Anything, mock.Anything).Return(&cannedProcess{
		stdout:  strings.NewReader(partial),
		stderr:  strings.NewReader("ERROR: fragment not found\n"),
		waitErr: exitCodeError(1),
	}, nil)
	srv := httptest.NewServer(setupTestRouter(t, extractor))
	defer srv.Close()

	resp, err := http.Get(srv.URL + downloadURL(testVideoURL, "best"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, partial, string(body))
}

func TestDownload_SuccessEndsCleanly(t *testing.T) {
	extractor := &mockExtractor{}
	extractor.On("Start", mock.Anything, mock.Anything).Return(&cannedProcess{
		stdout: strings.NewReader("complete-file"),
		stderr: strings.NewReader(""),
	}, nil)
	srv := httptest.NewServer(setupTestRouter(t, extractor))
	defer srv.Close()

	resp, err := http.Get(srv.URL + downloadURL(testVideoURL, "best"))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "complete-file", string(body))
}

func TestUnknownAPIRoute(t *testing.T) {
	r := setupTestRouter(t, &mockExtractor{})

	w := perform(r, http.MethodGet, "/api/nope", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not found"}`, w.Body.String())
}

func TestStaticFiles(t *testing.T) {
	r := setupTestRouter(t, &mockExtractor{})

	tests := []struct {
		name        string
		path        string
		status      int
		contentType string
		body        string
	}{
		{"root serves index", "/", http.StatusOK, "text/html; charset=utf-8", "<html>CyberStream</html>"},
		{"script", "/script.js", http.StatusOK, "application/javascript; charset=utf-8", "console.log('hi')"},
		{"directory index", "/docs/", http.StatusOK, "text/html; charset=utf-8", "<html>docs</html>"},
		{"sniffed type", "/assets/logo", http.StatusOK, "image/png", ""},
		{"missing", "/missing.css", http.StatusNotFound, "", ""},
		{"traversal stays inside root", "/../index.html", http.StatusOK, "text/html; charset=utf-8", "<html>CyberStream</html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(r, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.status, w.Code)
			if tt.contentType != "" {
				assert.Equal(t, tt.contentType, w.Header().Get("Content-Type"))
			}
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "image/svg+xml", contentTypeFor("icon.SVG", nil))
	assert.Equal(t, "font/woff2", contentTypeFor("font.woff2", nil))
	assert.Equal(t, "application/octet-stream", contentTypeFor("blob", []byte{0x00, 0x01, 0x02}))
}

func TestRouter_EmbeddedFrontend(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := SetupRouter(Dependencies{
		Server:   domain.DefaultConfig().Server,
		StaticFS: afero.FromIOFS{FS: web.StaticFS()},
		Version:  "test",
		Logger:   zap.NewNop(),
	})

	w := perform(router, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "CyberStream")
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

	w = perform(router, http.MethodGet, "/app.js", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/download?")

	w = perform(router, http.MethodGet, "/missing.css", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
