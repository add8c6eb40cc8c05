package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"railbook/api/routes"
	"railbook/internal/allocation"
	"railbook/internal/bookings"
	"railbook/internal/inventory"
	"railbook/internal/notifications"
	"railbook/internal/shared/config"
	"railbook/internal/shared/database"
	"railbook/internal/trains"
	"railbook/internal/waitlist"
	"railbook/pkg/cache"
	"railbook/pkg/logger"
	"railbook/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	appLogger := logger.GetDefault()

	// Smart environment loading
	if err := godotenv.Load(); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	// Load config
	cfg := config.Load()

	// Set Gin mode (debug/release)
	gin.SetMode(cfg.GinMode)

	// Initialize DB
	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("failed to connect", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize shared Redis cache client used by services and sweep locks
	if err := cache.Init(cache.Config{
		Address:  cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}); err != nil {
		appLogger.Error("Redis cache unavailable, continuing without cache", slog.Any("error", err))
	}

	// Initialize Rate Limiter
	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiterConfig := &ratelimit.Config{
			Enabled:         cfg.RateLimit.Enabled,
			WindowDuration:  cfg.RateLimit.WindowDuration,
			DefaultRequests: cfg.RateLimit.DefaultRequests,
			PublicRequests:  cfg.RateLimit.PublicRequests,
			AuthRequests:    cfg.RateLimit.AuthRequests,
			BookingRequests: cfg.RateLimit.BookingRequests,
			AdminRequests:   cfg.RateLimit.AdminRequests,
			WhitelistedIPs:  cfg.RateLimit.WhitelistedIPs,
		}

		rateLimiter = ratelimit.NewRateLimiter(db.GetRedisClient(), rateLimiterConfig)
		appLogger.Info("Rate limiter initialized",
			slog.Bool("enabled", cfg.RateLimit.Enabled),
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("default_requests", cfg.RateLimit.DefaultRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	// Repositories shared by the HTTP layer and the allocation engines
	pg := db.GetPostgreSQL()
	trainRepo := trains.NewRepository(pg)
	invRepo := inventory.NewRepository(pg)
	waitlistRepo := waitlist.NewRepository(pg)
	bookingRepo := bookings.NewRepository(pg)
	notifRepo := notifications.NewRepository(pg)

	var cacheService cache.Service
	if cache.IsInitialized() {
		cacheService = cache.NewService(cache.Client())
	}
	trainService := trains.NewService(trainRepo, cacheService)
	waitlistService := waitlist.NewService(waitlistRepo, trainService, nil)
	bookingService := bookings.NewService(bookingRepo)

	// Event pipeline: inline publish through the outbox, relay for retries,
	// consumer group for the delivery log.
	backgroundCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	var producer notifications.EventProducer
	var relay *notifications.OutboxRelay
	var consumer notifications.EventConsumer
	var publisher allocation.EventPublisher

	if cfg.Kafka.Enabled {
		producerConfig := notifications.DefaultKafkaProducerConfig()
		producerConfig.Brokers = cfg.Kafka.Brokers
		producer, err = notifications.NewKafkaEventProducer(producerConfig)
		if err != nil {
			appLogger.Error("Failed to create Kafka producer, events stay in the outbox", slog.Any("error", err))
		} else {
			relay = notifications.NewOutboxRelay(notifRepo, producer, nil)
			relay.Start(backgroundCtx)
			defer relay.Stop()

			consumerConfig := notifications.DefaultConsumerConfig()
			consumerConfig.Brokers = cfg.Kafka.Brokers
			consumerConfig.GroupID = cfg.Kafka.ConsumerGroup
			consumer, err = notifications.NewKafkaEventConsumer(consumerConfig, notifRepo)
			if err != nil {
				appLogger.Error("Failed to create Kafka consumer", slog.Any("error", err))
			} else if err := consumer.Start(backgroundCtx); err != nil {
				appLogger.Error("Failed to start Kafka consumer", slog.Any("error", err))
			} else {
				defer consumer.Stop()
			}

			defer producer.Close()
		}
	} else {
		appLogger.Info("Kafka disabled, allocation events recorded in the outbox only")
	}
	publisher = notifications.NewOutboxPublisher(notifRepo, producer)

	// Allocation engines and sweep scheduler
	confirmationEngine := allocation.NewConfirmationEngine(invRepo, waitlistRepo, bookingService, publisher)
	promotionEngine := allocation.NewPromotionEngine(invRepo, waitlistRepo, publisher)
	coordinator := allocation.NewCoordinator(confirmationEngine, promotionEngine, trainService, cache.Client(), &allocation.CoordinatorConfig{
		Workers:     cfg.Scheduler.Workers,
		UnitLockTTL: cfg.Scheduler.UnitLockTTL,
	})
	scheduler := allocation.NewScheduler(coordinator, trainService, &allocation.SchedulerConfig{
		SweepInterval:     cfg.Scheduler.SweepInterval,
		ChartPrepInterval: cfg.Scheduler.ChartPrepInterval,
		ChartPrepWindow:   cfg.Scheduler.ChartPrepWindow,
		HorizonDays:       cfg.Scheduler.HorizonDays,
	})
	scheduler.Start(backgroundCtx)
	defer scheduler.Stop()

	// Queue housekeeping: entry expiry and departed-RAC cleanup
	jobProcessor := waitlist.NewJobProcessor(waitlistService, nil)
	jobProcessor.Start(backgroundCtx)
	defer jobProcessor.Stop()

	// Setup router with rate limiter
	router := setupRouter(cfg, db, rateLimiter, scheduler)

	// HTTP server
	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		appLogger.Info("🚂 Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("version", cfg.APIVersion),
			slog.Bool("redis_cache", cache.IsInitialized()),
			slog.Bool("kafka", cfg.Kafka.Enabled),
			slog.Bool("rate_limiting", cfg.RateLimit.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	appLogger.Info("Server exited gracefully")
}

func setupRouter(cfg *config.Config, db *database.DB, rateLimiter *ratelimit.RateLimiter, scheduler *allocation.Scheduler) *gin.Engine {
	engine := gin.New()
	appLogger := logger.GetDefault()

	// Built-in middleware: logs requests + recovers from panics
	engine.Use(RequestLoggerMiddleware(appLogger), gin.Recovery())

	// CORS configuration
	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true // allow every origin dynamically
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-RateLimit-*"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Global rate limiting middleware (applied to all routes)
	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter))
		appLogger.Info("Rate limiting middleware applied to all routes")
	}

	// Initialize and setup routes
	appRouter := routes.NewRouter(cfg, db, scheduler)
	appRouter.SetupRoutes(engine)

	return engine
}

func RequestLoggerMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		l.LogHTTPRequest(c, duration)
	}
}
