package bookings

import (
	"railbook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes configures booking routes
func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller) {
	b := rg.Group("/bookings")
	b.Use(middleware.JWTAuth())
	{
		b.GET("", controller.ListMyBookings)
		b.GET("/pnr/:pnr", controller.GetByPNR)
		b.DELETE("/:id", controller.CancelBooking)
	}
}
