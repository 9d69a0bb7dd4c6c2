package main

import (
	"context"

	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/config"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/handlers"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/models"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/services"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/utils"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cache            *services.Cache
	authService      *services.AuthService
	dashboardService *services.DashboardService
	paymentService   *services.PaymentService
	storageService   *services.StorageService
	tokenCleanup     *services.TokenCleanupService
	taskQueue        services.TaskQueue
	worker           *services.Worker
	authHandler      *handlers.AuthHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Seed default data
	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	// Initialize system logger
	services.InitSystemLogger(models.GetDB())

	// Start system log cleanup scheduler
	services.StartLogCleanupScheduler(models.GetDB())

	// Start nightly purge of expired credentials
	tokenCleanup := services.NewTokenCleanupService(models.GetDB())
	tokenCleanup.StartScheduler()

	// Email task queue (uses Redis if enabled, otherwise sync mode)
	emailService := services.NewEmailService(models.GetDB())
	processEmail := func(ctx context.Context, task *services.EmailTask) error {
		return emailService.Send(task.To, task.Subject, task.Body)
	}
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(processEmail)
	}

	// Start async worker if Redis is enabled
	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(processEmail)
			if err := worker.Start(); err != nil {
				logger.Warn().Err(err).Msg("Failed to start task worker")
			}
		}
	}

	cache := services.NewCache()

	storageService, err := services.NewStorageService(&cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	authService := services.NewAuthService(models.GetDB(), &cfg.JWT, &cfg.OAuth, taskQueue)

	// Create default admin user
	authHandler := handlers.NewAuthHandler(models.GetDB(), cfg, taskQueue)
	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		cache:            cache,
		authService:      authService,
		dashboardService: services.NewDashboardService(models.GetDB(), cache),
		paymentService:   services.NewPaymentService(&cfg.Payment),
		storageService:   storageService,
		tokenCleanup:     tokenCleanup,
		taskQueue:        taskQueue,
		worker:           worker,
		authHandler:      authHandler,
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.tokenCleanup.StopScheduler()
	services.StopLogCleanupScheduler()
	logger.Info().Msg("All schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
}
