package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/hatchery-inc/hatchery/internal/infrastructure/config"
	"github.com/hatchery-inc/hatchery/internal/interfaces/http/middleware"
	"github.com/hatchery-inc/hatchery/internal/interfaces/http/routes"
	"github.com/hatchery-inc/hatchery/internal/shared/constants"
	"github.com/hatchery-inc/hatchery/internal/shared/logger"
)

// Router represents the HTTP router configuration
type Router struct {
	*Container
}

// NewRouter creates a new HTTP router with all dependencies
func NewRouter(db *gorm.DB, cfg *config.Config, log logger.Interface) (*Router, error) {
	c, err := NewContainer(db, cfg, log)
	if err != nil {
		return nil, err
	}
	return &Router{Container: c}, nil
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.Logger(r.log.Named("http")))
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.Metrics())
	r.engine.Use(middleware.SecurityHeaders())
	r.engine.Use(middleware.CORS(r.cfg.Server.AllowedOrigins))

	r.engine.GET("/health", r.hdlrs.healthHandler.HealthCheck)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	adminAuth := middleware.RequireToken(constants.HeaderAdminToken, r.cfg.Hook.AdminToken, r.log)
	hookLimiter := middleware.NewRateLimiter(r.redis, "hook", r.cfg.Hook.RateLimit, r.cfg.Hook.RateWindow(), r.log)

	routes.SetupPaymentRoutes(r.engine, &routes.PaymentRouteConfig{
		PaymentHookHandler: r.hdlrs.paymentHookHandler,
		HookAuth:           middleware.RequireToken(constants.HeaderHookToken, r.cfg.Hook.Token, r.log),
		RateLimit:          hookLimiter.Limit(),
	})
	routes.SetupInstanceRoutes(r.engine, &routes.InstanceRouteConfig{
		InstanceHandler: r.hdlrs.instanceHandler,
		AdminAuth:       adminAuth,
	})
	routes.SetupAdminRoutes(r.engine, &routes.AdminRouteConfig{
		MonitorHandler: r.hdlrs.monitorHandler,
		AdminAuth:      adminAuth,
	})
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
