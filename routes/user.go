package routes

import (
	"rockspotter/controllers"
	"rockspotter/middlewares"

	"github.com/gin-gonic/gin"
)

// SetupUserRoutes sets up account, profile and user admin routes.
// Register and login share the failed-attempt limit.
func SetupUserRoutes(router *gin.RouterGroup, counter middlewares.HitCounter) {
	users := router.Group("/users")
	authLimit := middlewares.RateLimitMiddleware(counter, middlewares.AuthRateLimit)
	{
		users.POST("/register", authLimit, controllers.Register)
		users.POST("/login", authLimit, controllers.Login)
		users.GET("/:id", controllers.GetUser)
	}

	profile := users.Group("/profile")
	profile.Use(middlewares.AuthMiddleware())
	{
		profile.GET("/me", controllers.GetProfile)
		profile.PUT("/me", controllers.UpdateProfile)
	}

	admin := users.Group("/admin")
	admin.Use(middlewares.AuthMiddleware())
	{
		admin.GET("/all", middlewares.RBACMiddleware("user", "read"), controllers.ListUsers)
		admin.PUT("/:id/role", middlewares.RBACMiddleware("user", "update"), controllers.UpdateUserRole)
	}
}
