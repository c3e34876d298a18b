package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/cyberstream-go/internal/app"
	"github.com/yourusername/cyberstream-go/internal/domain"
	"go.uber.org/zap"
)

// DownloadHandler handles streaming download requests
type DownloadHandler struct {
	proxy  *app.StreamProxy
	logger *zap.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(proxy *app.StreamProxy, logger *zap.Logger) *DownloadHandler {
	return &DownloadHandler{
		proxy:  proxy,
		logger: logger,
	}
}

// Download handles GET /api/download?url=&quality=
func (h *DownloadHandler) Download(c *gin.Context) {
	job, err := h.proxy.Prepare(c.Query("url"), c.Query("quality"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.proxy.Stream(c.Request.Context(), job, c.Writer)
	if err == nil {
		return
	}

	switch {
	case result.BytesSent > 0:
		// Headers and part of the body are out. Dropping the connection
		// keeps net/http from writing the final chunk, so the client sees
		// a truncated transfer instead of a complete one.
		panic(http.ErrAbortHandler)
	case errors.Is(err, domain.ErrSpawnFailed):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to start download",
			"details": err.Error(),
		})
	case result.State == domain.StateFailedBeforeStart:
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Download failed",
			"details": err.Error(),
		})
	default:
		// client gone; the proxy has logged it
		c.Abort()
	}
}
