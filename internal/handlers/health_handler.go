package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/projectday/navigator-backend/internal/services"
	"github.com/projectday/navigator-backend/internal/storage"
)

// HealthHandler reports service liveness and a few gauges
type HealthHandler struct {
	catalog        *storage.VenueCatalog
	sessionService *services.SessionService
	version        string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(catalog *storage.VenueCatalog, sessionService *services.SessionService, version string) *HealthHandler {
	return &HealthHandler{
		catalog:        catalog,
		sessionService: sessionService,
		version:        version,
	}
}

// Health handles GET /api/v1/health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"version":         h.version,
		"venues":          h.catalog.Count(),
		"active_sessions": h.sessionService.ActiveSessions(),
	})
}
