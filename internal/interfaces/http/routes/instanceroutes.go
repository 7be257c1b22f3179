package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/hatchery-inc/hatchery/internal/interfaces/http/handlers"
)

// InstanceRouteConfig holds dependencies for instance routes.
type InstanceRouteConfig struct {
	InstanceHandler *handlers.InstanceHandler
	AdminAuth       gin.HandlerFunc
}

// SetupInstanceRoutes configures operator routes for provisioned instances.
func SetupInstanceRoutes(engine *gin.Engine, cfg *InstanceRouteConfig) {
	instances := engine.Group("/instances")
	instances.Use(cfg.AdminAuth)
	{
		instances.GET("/:sid", cfg.InstanceHandler.GetInstance)
		instances.GET("/:sid/progress", cfg.InstanceHandler.GetProgress)
		instances.GET("/:sid/health", cfg.InstanceHandler.GetHealth)
		instances.GET("/:sid/logs", cfg.InstanceHandler.GetLogs)

		instances.POST("/:sid/redeploy", cfg.InstanceHandler.Redeploy)
		instances.POST("/:sid/stop", cfg.InstanceHandler.StopInstance)
		instances.PUT("/:sid/variables", cfg.InstanceHandler.UpdateVariables)
		instances.DELETE("/:sid", cfg.InstanceHandler.DeleteInstance)
	}
}
