// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"railbook/internal/allocation"
	"railbook/internal/auth"
	"railbook/internal/bookings"
	"railbook/internal/inventory"
	"railbook/internal/notifications"
	"railbook/internal/shared/config"
	"railbook/internal/shared/database"
	"railbook/internal/trains"
	"railbook/internal/users"
	"railbook/internal/waitlist"
	"railbook/pkg/cache"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config       *config.Config
	db           *database.DB
	scheduler    *allocation.Scheduler
	trainService trains.Service // For dependency injection
}

// NewRouter creates a new router instance. The scheduler is built in main
// because it owns background workers; the router only exposes its admin API.
func NewRouter(cfg *config.Config, db *database.DB, scheduler *allocation.Scheduler) *Router {
	return &Router{
		config:    cfg,
		db:        db,
		scheduler: scheduler,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupAuthRoutes(api)
		r.setupUserRoutes(api)

		// Train routes must come before waitlist routes for dependency injection
		r.setupTrainRoutes(api)
		r.setupInventoryRoutes(api)
		r.setupWaitlistRoutes(api)
		r.setupBookingRoutes(api)
		r.setupNotificationRoutes(api)
		r.setupAllocationRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "railbook-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "railbook-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})
}

// setupAuthRoutes configures authentication routes
func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	authRepo := auth.NewRepository(r.db.GetPostgreSQL())
	authService := auth.NewService(authRepo, r.config)
	authController := auth.NewController(authService)

	auth.SetupAuthRoutes(rg, authController)
}

// setupUserRoutes configures user profile routes
func (r *Router) setupUserRoutes(rg *gin.RouterGroup) {
	userRepo := users.NewRepository(r.db.GetPostgreSQL())
	userService := users.NewService(userRepo)
	userController := users.NewController(userService)

	users.SetupUserRoutes(rg, userController)
}

// setupTrainRoutes configures train and coach management routes
func (r *Router) setupTrainRoutes(rg *gin.RouterGroup) {
	trainRepo := trains.NewRepository(r.db.GetPostgreSQL())

	var cacheService cache.Service
	if cache.IsInitialized() {
		cacheService = cache.NewService(cache.Client())
	}
	trainService := trains.NewService(trainRepo, cacheService)
	trainController := trains.NewController(trainService)

	// Keep the service for waitlist dependency injection
	r.trainService = trainService

	trains.SetupTrainRoutes(rg, trainController)
}

// setupInventoryRoutes configures seat inventory routes
func (r *Router) setupInventoryRoutes(rg *gin.RouterGroup) {
	invRepo := inventory.NewRepository(r.db.GetPostgreSQL())
	invController := inventory.NewController(invRepo)

	inventory.SetupInventoryRoutes(rg, invController)
}

// setupWaitlistRoutes configures waitlist and RAC queue routes
func (r *Router) setupWaitlistRoutes(rg *gin.RouterGroup) {
	waitlistRepo := waitlist.NewRepository(r.db.GetPostgreSQL())
	waitlistService := waitlist.NewService(waitlistRepo, r.trainService, nil)
	waitlistController := waitlist.NewController(waitlistService)

	waitlist.SetupWaitlistRoutes(rg, waitlistController)
}

// setupBookingRoutes configures booking routes
func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	bookingRepo := bookings.NewRepository(r.db.GetPostgreSQL())
	bookingService := bookings.NewService(bookingRepo)
	bookingController := bookings.NewController(bookingService)

	bookings.SetupBookingRoutes(rg, bookingController)
}

// setupNotificationRoutes configures notification history routes
func (r *Router) setupNotificationRoutes(rg *gin.RouterGroup) {
	notifRepo := notifications.NewRepository(r.db.GetPostgreSQL())
	notifController := notifications.NewController(notifRepo)

	notifications.SetupNotificationRoutes(rg, notifController)
}

// setupAllocationRoutes configures admin sweep trigger routes
func (r *Router) setupAllocationRoutes(rg *gin.RouterGroup) {
	if r.scheduler == nil {
		return
	}
	allocationController := allocation.NewController(r.scheduler)

	allocation.SetupAllocationRoutes(rg, allocationController)
}
