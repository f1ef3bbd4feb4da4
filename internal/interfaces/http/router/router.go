package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tropa/backend/internal/infrastructure/auth"
	"github.com/tropa/backend/internal/infrastructure/config"
	"github.com/tropa/backend/internal/infrastructure/logger"
	"github.com/tropa/backend/internal/interfaces/http/handler"
	"github.com/tropa/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Handlers bundles the route handlers wired by Setup.
type Handlers struct {
	System  *handler.SystemHandler
	Product *handler.ProductHandler
	Order   *handler.OrderHandler
	Wallet  *handler.WalletHandler
}

// Setup builds the gin engine: ambient middleware, health endpoints, and the
// authenticated /api/v1 surface. Mutating store endpoints additionally
// require a manager-tier role.
func Setup(cfg *config.Config, log *zap.Logger, jwtService *auth.JWTService, h Handlers) (*gin.Engine, error) {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	engine.GET("/health", h.System.Health)
	engine.GET("/ready", h.System.Ready)

	api := engine.Group("/api/v1", middleware.RequireAuth(jwtService))
	manager := middleware.RequireTroopManager()

	product := api.Group("/product")
	{
		product.GET("", h.Product.List)
		product.GET("/:id", h.Product.Get)
		product.GET("/:id/logs", h.Product.Logs)
		product.GET("/logs", manager, h.Product.AllLogs)
		product.GET("/logs/:id", h.Product.GetLog)

		product.POST("", manager, h.Product.Create)
		product.PUT("/:id", manager, h.Product.Update)
		product.POST("/sell", manager, h.Product.Sell)
		product.POST("/:id/restock", manager, h.Product.Restock)
		product.POST("/:id/image", manager, h.Product.UploadImage)
		product.DELETE("/:id", manager, h.Product.Deactivate)
	}

	order := api.Group("/order")
	{
		order.GET("", h.Order.List)
		order.GET("/:id", h.Order.Get)
		order.POST("", manager, h.Order.Create)
		order.POST("/:id/cancel", manager, h.Order.Cancel)
		order.POST("/:id/revert", manager, h.Order.Revert)
	}

	wallet := api.Group("/wallet")
	{
		wallet.GET("/balance", h.Wallet.GetBalance)
		wallet.GET("/transactions", h.Wallet.ListTransactions)
		wallet.GET("/transactions/:id", h.Wallet.GetTransaction)
		wallet.POST("/topup", manager, h.Wallet.TopUp)
	}

	return engine, nil
}
