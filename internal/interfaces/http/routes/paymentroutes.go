package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/hatchery-inc/hatchery/internal/interfaces/http/handlers"
)

// PaymentRouteConfig holds dependencies for the payment hook.
type PaymentRouteConfig struct {
	PaymentHookHandler *handlers.PaymentHookHandler
	HookAuth           gin.HandlerFunc
	RateLimit          gin.HandlerFunc
}

// SetupPaymentRoutes configures the internal payment-confirmed hook.
func SetupPaymentRoutes(engine *gin.Engine, cfg *PaymentRouteConfig) {
	payments := engine.Group("/payments")
	payments.Use(cfg.RateLimit, cfg.HookAuth)
	{
		payments.POST("/confirmed", cfg.PaymentHookHandler.PaymentConfirmed)
	}
}
