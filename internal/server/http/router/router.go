package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/polkiloo/samplestore/internal/config"
	"github.com/polkiloo/samplestore/internal/server/http/handlers"
	"github.com/polkiloo/samplestore/internal/server/http/middleware"
)

const maxDecompressedBody = 1 << 20

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.StoreFacade, cfg *config.Config, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest(maxDecompressedBody))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	webhookHandler := handlers.NewWebhookHandler(facade)
	storefrontHandler := handlers.NewStorefrontHandler(facade)
	authHandler := handlers.NewAuthHandler(facade)
	adminHandler := handlers.NewAdminHandler(facade)
	healthHandler := handlers.NewHealthHandler(facade)

	engine.GET("/healthz", healthHandler.Check)

	api := engine.Group("/api")
	limiter := middleware.NewRateLimiter(cfg.WebhookRateLimit, cfg.WebhookBurst)
	api.POST("/webhooks/payments", middleware.RateLimit(limiter, logger), webhookHandler.Receive)

	api.POST("/checkout", storefrontHandler.Checkout)
	api.GET("/orders/status", storefrontHandler.Status)
	api.POST("/codes/validate", storefrontHandler.ValidateCode)

	admin := api.Group("/admin")
	admin.POST("/login", authHandler.Login)

	adminAuth := admin.Group("")
	adminAuth.Use(middleware.AdminRequired(facade))
	adminAuth.GET("/dashboard", adminHandler.Dashboard)
	adminAuth.GET("/sales", adminHandler.Sales)
	adminAuth.GET("/sales/:id", adminHandler.Sale)
	adminAuth.POST("/sales/:id/fulfillment", adminHandler.AdvanceFulfillment)
	adminAuth.GET("/withdrawals", adminHandler.Withdrawals)
	adminAuth.GET("/withdrawals/:id", adminHandler.Withdrawal)
	adminAuth.POST("/withdrawals/:id/pay", adminHandler.PayWithdrawal)

	return engine
}
