package users

import (
	"railbook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupUserRoutes configures user profile and admin routes
func SetupUserRoutes(rg *gin.RouterGroup, controller *Controller) {
	me := rg.Group("/users")
	me.Use(middleware.JWTAuth())
	{
		me.GET("/me", controller.GetMe)
		me.PUT("/me", controller.UpdateMe)
	}

	admin := rg.Group("/admin/users")
	admin.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		admin.GET("", controller.ListUsers)
	}
}
