package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/dupe-guard/internal/app"
)

// AdminHandler handles cache statistics and maintenance requests
type AdminHandler struct {
	admin     *app.AdminService
	allowList *app.AllowList
	logger    *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(admin *app.AdminService, allowList *app.AllowList, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		admin:     admin,
		allowList: allowList,
		logger:    logger,
	}
}

// GetStats handles GET /api/v1/stats
func (h *AdminHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.admin.GetStats())
}

// GetGroups handles GET /api/v1/groups
func (h *AdminHandler) GetGroups(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"monitor_all": h.allowList.MonitorAll(),
		"groups":      h.allowList.Groups(),
	})
}

// ClearCache handles POST /api/v1/cache/clear
func (h *AdminHandler) ClearCache(c *gin.Context) {
	removed := h.admin.ClearAll()
	c.JSON(http.StatusOK, gin.H{
		"message": "cache cleared",
		"removed": removed,
	})
}

// Cleanup handles POST /api/v1/cache/cleanup
func (h *AdminHandler) Cleanup(c *gin.Context) {
	removed := h.admin.ForceCleanup()
	h.logger.Info("Forced cleanup", zap.Int("removed", removed))
	c.JSON(http.StatusOK, gin.H{
		"message": "expired entries removed",
		"removed": removed,
	})
}
