package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// Version is set at build time via -ldflags
var Version = "dev"

// HealthHandler serves liveness and version information
type HealthHandler struct {
	startedAt time.Time
}

// NewHealthHandler creates a health handler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{startedAt: time.Now()}
}

// RegisterRoutes registers the health endpoints
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.GetHealth)
}

// GetHealth returns service status, version and uptime
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":  "ok",
		"version": Version,
		"uptime":  time.Since(h.startedAt).String(),
	})
}
