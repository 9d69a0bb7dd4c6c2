package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/config"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/handlers"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/middleware"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/models"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, cfg *config.Config, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Credential endpoints get per-account sliding windows; public search gets
	// a coarse per-IP bucket.
	loginLimiter := middleware.NewWindowLimiter(
		time.Duration(cfg.RateLimit.LoginWindowSec)*time.Second, cfg.RateLimit.LoginMax)
	refreshLimiter := middleware.NewWindowLimiter(
		time.Duration(cfg.RateLimit.RefreshWindowSec)*time.Second, cfg.RateLimit.RefreshMax)
	searchLimiter := middleware.NewRateLimiter(
		float64(cfg.RateLimit.SearchRPS), cfg.RateLimit.SearchBurst)

	// Health check
	healthHandler := handlers.NewHealthHandler()
	r.GET("/health", healthHandler.CheckHealth)

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/login", loginLimiter.Middleware(), svc.authHandler.Login)
			auth.POST("/register", loginLimiter.Middleware(), svc.authHandler.Register)
			auth.POST("/oauth/login", loginLimiter.Middleware(), svc.authHandler.OAuthLogin)
			auth.POST("/refresh", refreshLimiter.Middleware(), svc.authHandler.Refresh)
			auth.POST("/logout", svc.authHandler.Logout)
			auth.POST("/forgot-password", loginLimiter.Middleware(), svc.authHandler.ForgotPassword)
			auth.POST("/reset-password", loginLimiter.Middleware(), svc.authHandler.ResetPassword)
			auth.GET("/config", svc.authHandler.GetAuthConfig)
		}

		// Storefront (public)
		foodHandler := handlers.NewFoodHandler(models.GetDB(), svc.cache)
		restaurantHandler := handlers.NewRestaurantHandler(models.GetDB())
		voucherHandler := handlers.NewVoucherHandler(models.GetDB(), svc.cache)
		api.GET("/foods/search", searchLimiter.Middleware(), foodHandler.Search)
		api.GET("/foods/:id", foodHandler.GetByID)
		api.GET("/restaurants", restaurantHandler.List)
		api.GET("/restaurants/:id", restaurantHandler.GetByID)
		api.GET("/vouchers", voucherHandler.ListApproved)

		// Protected routes (any authenticated user)
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			orderHandler := handlers.NewOrderHandler(models.GetDB(), svc.paymentService, svc.dashboardService, svc.taskQueue)
			protected.POST("/orders", orderHandler.Create)
			protected.GET("/orders", orderHandler.ListMine)
			protected.GET("/orders/:id", orderHandler.GetByID)

			uploadHandler := handlers.NewUploadHandler(svc.storageService)
			protected.POST("/uploads/image", uploadHandler.UploadImage)
		}

		// Enterprise routes
		enterprise := api.Group("/enterprise")
		enterprise.Use(middleware.AuthRequired(), middleware.EnterpriseRequired())
		{
			enterprise.GET("/restaurant", restaurantHandler.GetProfile)
			enterprise.POST("/restaurant", restaurantHandler.CreateProfile)
			enterprise.PUT("/restaurant", restaurantHandler.UpdateProfile)

			enterprise.GET("/foods", foodHandler.ListMine)
			enterprise.POST("/foods", foodHandler.Create)
			enterprise.PUT("/foods/:id", foodHandler.Update)
			enterprise.DELETE("/foods/:id", foodHandler.Delete)

			orderHandler := handlers.NewOrderHandler(models.GetDB(), svc.paymentService, svc.dashboardService, svc.taskQueue)
			enterprise.GET("/orders", orderHandler.ListForRestaurant)
			enterprise.PUT("/orders/:id/status", orderHandler.UpdateStatus)

			enterprise.GET("/vouchers", voucherHandler.ListMine)
			enterprise.POST("/vouchers", voucherHandler.Create)
			enterprise.DELETE("/vouchers/:id", voucherHandler.Delete)

			dashboardHandler := handlers.NewDashboardHandler(models.GetDB(), svc.dashboardService)
			enterprise.GET("/dashboard/stats", dashboardHandler.GetStats)
		}

		// Admin only routes
		admin := api.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired(), middleware.AuditLog())
		{
			userHandler := handlers.NewUserHandler(models.GetDB(), svc.authService)
			admin.GET("/users", userHandler.List)
			admin.PUT("/users/:id", userHandler.Update)
			admin.PUT("/users/:id/status", userHandler.UpdateStatus)
			admin.DELETE("/users/:id", userHandler.Delete)

			admin.GET("/restaurants/pending", restaurantHandler.ListPending)
			admin.POST("/restaurants/:id/approve", restaurantHandler.Approve)

			admin.GET("/vouchers/pending", voucherHandler.ListPending)
			admin.POST("/vouchers/:id/approve", voucherHandler.Approve)
			admin.DELETE("/vouchers/:id", voucherHandler.Delete)

			systemLogHandler := handlers.NewSystemLogHandler(models.GetDB())
			admin.GET("/system-logs", systemLogHandler.List)
			admin.GET("/system-logs/modules", systemLogHandler.GetModules)
			admin.GET("/system-logs/retention", systemLogHandler.GetRetention)
			admin.PUT("/system-logs/retention", systemLogHandler.SetRetention)
		}
	}
}
