package allocation

import (
	"railbook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAllocationRoutes configures admin sweep routes
func SetupAllocationRoutes(rg *gin.RouterGroup, controller *Controller) {
	sweeps := rg.Group("/admin/sweeps")
	sweeps.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		sweeps.POST("/trains/:id", controller.TriggerTrainSweep)
		sweeps.POST("/trains/:id/promotions", controller.TriggerTrainPromotion)
		sweeps.POST("/coaches/:id", controller.TriggerUnitSweep)
		sweeps.GET("/status", controller.GetStatus)
	}
}
