package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/assetcatalog/backend/internal/config"
	"github.com/assetcatalog/backend/internal/logging"
	"github.com/assetcatalog/backend/internal/metrics"
	"github.com/assetcatalog/backend/internal/middleware"
	"github.com/assetcatalog/backend/internal/services"
)

// NewRouter wires services, handlers and middleware into a gin engine.
// rdb may be nil.
func NewRouter(cfg *config.Config, db *gorm.DB, rdb *redis.Client, store services.FileStore) *gin.Engine {
	authService := services.NewAuthService(db, rdb, cfg)
	userService := services.NewUserService(db)
	adminService := services.NewAdminService(db, cfg)
	assetService := services.NewAssetService(db, services.NewLifecycleMachineForMode(cfg.StatusTransitions))
	reviewService := services.NewReviewService(db)
	uploadService := services.NewUploadService(store, cfg.UploadMaxBytes)

	authHandler := NewAuthHandler(authService)
	assetHandler := NewAssetHandler(assetService)
	reviewHandler := NewReviewHandler(reviewService)
	adminHandler := NewAdminHandler(assetService, userService, adminService)
	uploadHandler := NewUploadHandler(uploadService, cfg.UploadMaxBytes)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.RequestLogger())
	router.Use(metrics.Middleware())
	router.Use(middleware.CORS(cfg))

	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			logging.FromContext(c).WithError(err).Error("Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	if local, ok := store.(*services.LocalStore); ok {
		router.Static("/uploads", local.Root())
	}

	requireAuth := middleware.Auth(authService)
	optionalAuth := middleware.OptionalAuth(authService)

	api := router.Group("/api/v1")
	api.Use(middleware.RateLimiter(rdb, cfg))
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", requireAuth, authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.Me)
		}

		assets := api.Group("/assets")
		{
			assets.GET("", assetHandler.List)
			assets.POST("", requireAuth, assetHandler.Create)
			assets.GET("/:id", optionalAuth, assetHandler.Get)
			assets.PATCH("/:id", requireAuth, assetHandler.Update)
			assets.DELETE("/:id", requireAuth, assetHandler.Delete)
			assets.GET("/:id/versions", optionalAuth, assetHandler.Versions)
			assets.POST("/:id/request", requireAuth, assetHandler.RequestUsage)
			assets.GET("/:id/reviews", optionalAuth, reviewHandler.List)
			assets.POST("/:id/reviews", requireAuth, reviewHandler.Submit)
		}

		api.POST("/uploads", requireAuth, middleware.UploadRateLimit(rdb, cfg), uploadHandler.Upload)

		admin := api.Group("/admin")
		admin.Use(requireAuth)
		admin.Use(middleware.AdminOnly())
		{
			admin.GET("/assets", adminHandler.ListAssets)
			admin.PATCH("/assets/:id/status", adminHandler.UpdateAssetStatus)
			admin.GET("/users", adminHandler.ListUsers)
			admin.PUT("/users/:id/role", adminHandler.UpdateUserRole)
			admin.GET("/stats", adminHandler.Stats)
		}
	}

	return router
}
