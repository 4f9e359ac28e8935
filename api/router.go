package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/dupe-guard/api/handlers"
	"github.com/yourusername/dupe-guard/api/middleware"
	"github.com/yourusername/dupe-guard/internal/app"
)

// SetupRouter sets up the HTTP router. Event log routes are registered only
// when logsDir is set.
func SetupRouter(
	engine *app.Engine,
	admin *app.AdminService,
	scheduler *app.EvictionScheduler,
	dispatcher *app.Dispatcher,
	logsDir string,
	log *zap.Logger,
	version string,
) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(scheduler, dispatcher, version)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		messageHandler := handlers.NewMessageHandler(engine, log)
		v1.POST("/messages", messageHandler.Process)

		adminHandler := handlers.NewAdminHandler(admin, engine.AllowList(), log)
		v1.GET("/stats", adminHandler.GetStats)
		v1.GET("/groups", adminHandler.GetGroups)

		cache := v1.Group("/cache")
		{
			cache.POST("/clear", adminHandler.ClearCache)
			cache.POST("/cleanup", adminHandler.Cleanup)
		}

		if logsDir != "" {
			eventHandler := handlers.NewEventHandler(logsDir)
			events := v1.Group("/events")
			{
				events.GET("/categories", eventHandler.GetCategories)
				events.GET("/:category", eventHandler.GetEvents)
				events.GET("/:category/search", eventHandler.SearchEvents)
				events.GET("/:category/export", eventHandler.ExportEvents)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
