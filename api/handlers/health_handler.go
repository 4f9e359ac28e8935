package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/dupe-guard/internal/app"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	scheduler  *app.EvictionScheduler
	dispatcher *app.Dispatcher
	version    string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(scheduler *app.EvictionScheduler, dispatcher *app.Dispatcher, version string) *HealthHandler {
	return &HealthHandler{
		scheduler:  scheduler,
		dispatcher: dispatcher,
		version:    version,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Scheduler struct {
		Running   bool       `json:"running"`
		LastSweep *time.Time `json:"last_sweep,omitempty"`
	} `json:"scheduler"`
	Dispatcher struct {
		ActiveGroups int   `json:"active_groups"`
		Dropped      int64 `json:"dropped"`
	} `json:"dispatcher"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: h.version,
	}
	response.Scheduler.Running = h.scheduler.IsRunning()
	if last := h.scheduler.LastSweep(); !last.IsZero() {
		response.Scheduler.LastSweep = &last
	}
	if h.dispatcher != nil {
		response.Dispatcher.ActiveGroups = h.dispatcher.ActiveGroups()
		response.Dispatcher.Dropped = h.dispatcher.Dropped()
	}

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.scheduler.IsRunning() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "eviction scheduler not running",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
