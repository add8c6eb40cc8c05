package waitlist

import (
	"railbook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupWaitlistRoutes configures waitlist and RAC routes
func SetupWaitlistRoutes(rg *gin.RouterGroup, controller *Controller) {
	wl := rg.Group("/waitlist")
	wl.Use(middleware.JWTAuth())
	{
		wl.POST("", controller.JoinQueue)
		wl.GET("", controller.ListMyEntries)
		wl.GET("/:id/position", controller.GetPosition)
		wl.GET("/:id/rac", controller.GetRacStatus)
		wl.DELETE("/:id", controller.CancelEntry)
	}
}
