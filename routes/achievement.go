package routes

import (
	"rockspotter/controllers"
	"rockspotter/middlewares"

	"github.com/gin-gonic/gin"
)

func SetupAchievementRoutes(router *gin.RouterGroup) {
	achievements := router.Group("/achievements")
	{
		achievements.GET("", controllers.ListAchievements)
		achievements.GET("/types", controllers.AchievementTypes)
		achievements.GET("/:id", controllers.GetAchievement)
		achievements.GET("/user/:userId", controllers.UserAchievements)
	}

	auth := achievements.Group("")
	auth.Use(middlewares.AuthMiddleware())
	{
		auth.GET("/user/me/achievements", controllers.MyAchievements)
		auth.POST("", middlewares.RBACMiddleware("achievement", "create"), controllers.CreateAchievement)
		auth.POST("/award", middlewares.RBACMiddleware("achievement", "award"), controllers.AwardAchievement)
	}
}
