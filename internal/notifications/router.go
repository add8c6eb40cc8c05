package notifications

import (
	"railbook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupNotificationRoutes configures notification routes
func SetupNotificationRoutes(rg *gin.RouterGroup, controller *Controller) {
	n := rg.Group("/notifications")
	n.Use(middleware.JWTAuth())
	{
		n.GET("", controller.ListMyNotifications)
	}
}
