package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/orderledger/internal/api/handlers"
	"github.com/jafarshop/orderledger/internal/api/middleware"
	"github.com/jafarshop/orderledger/internal/config"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, svc *handlers.Services, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(customRecovery(logger))
	router.Use(loggingMiddleware(logger))

	// Root: friendly response so GET / returns 200 instead of 404
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "Order Ledger API",
			"endpoints": []string{
				"GET /health",
				"POST /v1/sync",
				"GET /v1/sync/:id",
				"GET /v1/ledger",
				"PATCH /v1/ledger",
				"POST /v1/ledger/flush",
				"POST /v1/ledger/tracking",
				"GET /v1/ledger/export.xlsx",
				"GET /v1/reports/products",
				"GET /v1/reports/variants",
				"GET /v1/reports/locations",
				"GET /v1/reports/variants/compare",
				"GET /v1/reports/variants/trend",
				"POST /v1/reports/variants/series",
				"GET /v1/shipments/stats",
				"POST /v1/shipments/status",
				"GET /v1/stock",
				"GET /v1/events",
				"POST /webhooks/shopify/fulfillment",
			},
		})
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Shopify webhook: fulfillment events set tracking codes on the ledger
	router.POST("/webhooks/shopify/fulfillment", handlers.HandleShopifyFulfillmentWebhook(cfg.Shopify.WebhookSecret, svc, logger))

	auth := middleware.NewAuthenticator(cfg.DashboardKeys, logger)

	// API v1 routes
	v1 := router.Group("/v1")
	{
		viewer := v1.Group("")
		viewer.Use(auth.Require(middleware.RoleViewer))
		{
			viewer.GET("/sync", handlers.HandleListSyncs(svc))
			viewer.GET("/sync/:id", handlers.HandleGetSync(svc))
			viewer.GET("/ledger", handlers.HandleGetLedger(svc, logger))
			viewer.GET("/ledger/export.xlsx", handlers.HandleExportLedger(svc, logger))
			viewer.GET("/reports/products", handlers.HandleProducts(svc, logger))
			viewer.GET("/reports/variants", handlers.HandleVariants(svc, logger))
			viewer.GET("/reports/locations", handlers.HandleLocations(svc, logger))
			viewer.GET("/reports/variants/compare", handlers.HandleCompareVariants(svc, logger))
			viewer.GET("/reports/variants/trend", handlers.HandleVariantTrend(svc, logger))
			viewer.POST("/reports/variants/series", handlers.HandleVariantSeries(svc, logger))
			viewer.GET("/shipments/stats", handlers.HandleShipmentStats(svc))
			viewer.GET("/stock", handlers.HandleStock(svc))
			viewer.GET("/events", handlers.HandleListEvents(svc, logger))
		}

		editor := v1.Group("")
		editor.Use(auth.Require(middleware.RoleEditor))
		{
			editor.POST("/sync", handlers.HandleSubmitSync(svc, logger))
			editor.PATCH("/ledger", handlers.HandleEditLedger(svc, logger))
			editor.POST("/ledger/flush", handlers.HandleFlushLedger(svc, logger))
			editor.POST("/ledger/tracking", handlers.HandlePushTracking(svc, logger))
			editor.POST("/shipments/status", handlers.HandleWriteShipmentStatus(svc, logger))
		}
	}

	return router
}

// customRecovery is a custom recovery middleware that logs panics
func customRecovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.Any("error", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal server error",
			"details": fmt.Sprintf("%v", recovered),
		})
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
