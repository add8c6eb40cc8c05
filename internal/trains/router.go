package trains

import (
	"railbook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupTrainRoutes configures train and coach routes
func SetupTrainRoutes(rg *gin.RouterGroup, controller *Controller) {
	trains := rg.Group("/trains")
	{
		trains.GET("", controller.ListTrains)
		trains.GET("/:id", controller.GetTrain)
		trains.GET("/:id/coaches", controller.ListCoaches)
	}

	admin := rg.Group("/admin/trains")
	admin.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		admin.POST("", controller.CreateTrain)
		admin.POST("/:id/coaches", controller.AddCoach)
	}
}
