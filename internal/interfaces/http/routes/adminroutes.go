package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/hatchery-inc/hatchery/internal/interfaces/http/handlers"
)

// AdminRouteConfig holds dependencies for admin routes.
type AdminRouteConfig struct {
	MonitorHandler *handlers.MonitorHandler
	AdminAuth      gin.HandlerFunc
}

// SetupAdminRoutes configures the deployment monitor admin routes.
func SetupAdminRoutes(engine *gin.Engine, cfg *AdminRouteConfig) {
	monitor := engine.Group("/admin/monitor")
	monitor.Use(cfg.AdminAuth)
	{
		monitor.GET("/stats", cfg.MonitorHandler.GetStats)
		monitor.GET("/instances", cfg.MonitorHandler.ListInstances)
		monitor.POST("/check", cfg.MonitorHandler.Check)
		monitor.DELETE("/instances/:sid", cfg.MonitorHandler.StopMonitoring)
	}
}
