package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/cyberstream-go/internal/app"
	"github.com/yourusername/cyberstream-go/internal/domain"
	"go.uber.org/zap"
)

// InfoHandler handles metadata requests
type InfoHandler struct {
	fetcher *app.MetadataFetcher
	logger  *zap.Logger
}

// NewInfoHandler creates a new info handler
func NewInfoHandler(fetcher *app.MetadataFetcher, logger *zap.Logger) *InfoHandler {
	return &InfoHandler{
		fetcher: fetcher,
		logger:  logger,
	}
}

// InfoRequest represents a metadata request
type InfoRequest struct {
	URL string `json:"url"`
}

// GetInfo handles POST /api/info. Extraction failures still answer 200
// with the degraded record.
func (h *InfoHandler) GetInfo(c *gin.Context) {
	var req InfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	md, err := h.fetcher.Fetch(c.Request.Context(), req.URL)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrURLRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, context.Canceled):
			// client went away
			c.Abort()
		default:
			h.logger.Error("Failed to fetch video info", zap.String("url", req.URL), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, md)
}
