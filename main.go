// Package main provides the main entry point for the Airwave continuity engine
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirphl/airwave/app/handlers"
	"github.com/amirphl/airwave/app/router"
	"github.com/amirphl/airwave/app/scheduler"
	"github.com/amirphl/airwave/app/services"
	businessflow "github.com/amirphl/airwave/business_flow"
	"github.com/amirphl/airwave/config"
	"github.com/amirphl/airwave/models"
	"github.com/amirphl/airwave/repository"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// @title Airwave Continuity API
// @version 1.0
// @description Queue, playback, commercial slot and flow management for an automated radio station.
// @BasePath /

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting Airwave continuity engine...")

	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.router.Start(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.New(log.Default(), logger.Config{
			SlowThreshold:             cfg.SlowQueryTime,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the redis client and verifies connectivity.
// It returns nil when redis is not configured.
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.UsesRedis() {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established (db=%d)", cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor periodically pings redis to surface connectivity issues
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeServices picks redis-backed integrations when redis is available
// and log-only fallbacks otherwise
func initializeServices(cfg *config.ProductionConfig, rc *redis.Client, monitorLog *log.Logger) (services.NotificationService, services.PlaybackDevice, scheduler.TickLock) {
	if rc == nil {
		log.Println("Redis disabled: events and device commands go to the log, tick lock off")
		return services.NewLogNotificationService(monitorLog), services.NewLogPlaybackDevice(monitorLog), nil
	}

	prefix := cfg.Cache.RedisPrefix
	// The lease outlives two missed ticks before another instance may take over
	lock := services.NewRedisTickLock(rc, prefix+"continuity:tick:lock", 3*cfg.Continuity.TickInterval)
	return services.NewRedisNotificationService(rc, prefix+"events:"),
		services.NewRedisPlaybackDevice(rc, prefix+"device:commands"),
		lock
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		stopFuncs = append(stopFuncs, startCacheHealthMonitor(context.Background(), rc, cfg.Cache.CleanupInterval))
	}

	loc, err := cfg.Station.Location()
	if err != nil {
		return nil, err
	}

	monitorLog, closeMonitorLog := scheduler.NewMonitorLogger(scheduler.LogFileOptions{
		Path:       cfg.Logging.FilePath,
		MaxSizeMB:  cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
	})

	// Initialize repositories
	contentRepo := repository.NewContentRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	playLogRepo := repository.NewPlayLogRepository(db)
	historyRepo := repository.NewPlayHistoryRepository(db)
	queueRepo := repository.NewQueueRepository(db)
	flowRepo := repository.NewFlowRepository(db)
	executionRepo := repository.NewFlowExecutionLogRepository(db)

	notifier, device, tickLock := initializeServices(cfg, rc, monitorLog)

	// Continuity engine
	resolver := scheduler.NewCommercialResolver(campaignRepo, contentRepo, playLogRepo, loc, monitorLog)
	leveler := scheduler.NewQueueLeveler(queueRepo, contentRepo, historyRepo, cfg.Continuity.MinQueue, cfg.Continuity.ExclusionLookback, monitorLog)
	window := scheduler.NewFlowWindow(loc)
	runner := scheduler.NewFlowRunner(queueRepo, contentRepo, resolver, device, flowRepo, executionRepo, notifier, monitorLog)

	monitor := scheduler.NewContinuityMonitor(
		scheduler.MonitorConfig{
			TickInterval:      cfg.Continuity.TickInterval,
			MinWatermark:      cfg.Continuity.MinQueue,
			GracePeriod:       cfg.Continuity.GracePeriod,
			ExclusionLookback: cfg.Continuity.ExclusionLookback,
			AutoPlayWhenIdle:  cfg.Continuity.AutoPlayWhenIdle,
			SlotMaxCount:      cfg.Continuity.SlotMaxCount,
			SlotMaxDuration:   time.Duration(cfg.Continuity.SlotMaxDurationSeconds) * time.Second,
			OpeningJingleID:   cfg.Continuity.OpeningJingle(),
			ClosingJingleID:   cfg.Continuity.ClosingJingle(),
		},
		scheduler.MonitorDeps{
			Queue:     queueRepo,
			Contents:  contentRepo,
			History:   historyRepo,
			Flows:     flowRepo,
			Resolver:  resolver,
			Leveler:   leveler,
			Window:    window,
			Runner:    runner,
			Publisher: notifier,
			Device:    device,
			Lock:      tickLock,
			Location:  loc,
			Logger:    monitorLog,
		},
		scheduler.NewMonitorState(),
	)

	// Initialize flows
	queueFlow := businessflow.NewQueueFlow(queueRepo, contentRepo, notifier)
	playbackFlow := businessflow.NewPlaybackFlow(monitor)
	commercialFlow := businessflow.NewCommercialFlow(
		resolver,
		queueRepo,
		device,
		notifier,
		nil,
		businessflow.CommercialLimits{
			MaxCount:    cfg.Continuity.SlotMaxCount,
			MaxDuration: time.Duration(cfg.Continuity.SlotMaxDurationSeconds) * time.Second,
		},
		rc,
		cfg.Cache.RedisPrefix,
		monitorLog,
	)
	flowManagementFlow := businessflow.NewFlowManagementFlow(flowRepo, executionRepo, contentRepo, window)
	campaignFlow := businessflow.NewCampaignFlow(campaignRepo, contentRepo)
	contentFlow := businessflow.NewContentFlow(contentRepo)
	reportFlow := businessflow.NewReportFlow(playLogRepo, historyRepo, campaignRepo, loc)

	// Initialize handlers
	appRouter := router.NewFiberRouter(cfg, router.Handlers{
		Queue:      handlers.NewQueueHandler(queueFlow),
		Playback:   handlers.NewPlaybackHandler(playbackFlow),
		Commercial: handlers.NewCommercialHandler(commercialFlow),
		Flow:       handlers.NewFlowHandler(flowManagementFlow),
		Campaign:   handlers.NewCampaignHandler(campaignFlow),
		Content:    handlers.NewContentHandler(contentFlow),
		Report:     handlers.NewReportHandler(reportFlow),
	}, healthChecks(db, rc))

	if cfg.Continuity.Enabled {
		stopFuncs = append(stopFuncs, monitor.Start(context.Background()))
		if lock, ok := tickLock.(*services.RedisTickLock); ok {
			stopFuncs = append(stopFuncs, func() {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := lock.Release(ctx); err != nil {
					log.Printf("Failed to release tick lock: %v", err)
				}
			})
		}
	} else {
		log.Println("Continuity monitor disabled by configuration")
	}
	stopFuncs = append(stopFuncs, func() {
		if err := closeMonitorLog(); err != nil {
			log.Printf("Failed to close monitor log: %v", err)
		}
	})

	return &Application{
		router:    appRouter,
		config:    cfg,
		server:    appRouter.GetApp(),
		stopFuncs: stopFuncs,
	}, nil
}

func healthChecks(db *gorm.DB, rc *redis.Client) map[string]router.HealthFunc {
	checks := map[string]router.HealthFunc{
		"database": func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return sqlDB.PingContext(ctx)
		},
	}
	if rc != nil {
		checks["redis"] = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := rc.Ping(ctx).Err(); err != nil {
				return errors.Join(errors.New("redis unreachable"), err)
			}
			return nil
		}
	}
	return checks
}
