package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/cyberstream-go/internal/domain"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	version    string
	capability domain.Capability
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, capability domain.Capability) *HealthHandler {
	return &HealthHandler{
		version:    version,
		capability: capability,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	RemuxAvailable bool   `json:"remux_available"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:         "ok",
		Version:        h.version,
		RemuxAvailable: h.capability.RemuxAvailable,
	})
}
