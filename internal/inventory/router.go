package inventory

import (
	"railbook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupInventoryRoutes configures seat inventory routes
func SetupInventoryRoutes(rg *gin.RouterGroup, controller *Controller) {
	coaches := rg.Group("/coaches")
	{
		coaches.GET("/:id/seats", controller.ListSeats)
		coaches.GET("/:id/availability", controller.GetAvailability)
	}

	rg.GET("/seats/:id", controller.GetSeat)

	admin := rg.Group("/admin/coaches")
	admin.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		admin.POST("/:id/seats", controller.CreateSeats)
	}
}
