package routes

import (
	"rockspotter/controllers"
	"rockspotter/middlewares"

	"github.com/gin-gonic/gin"
)

// SetupHuntRoutes sets up hunt management and participation routes
func SetupHuntRoutes(router *gin.RouterGroup) {
	hunts := router.Group("/hunts")
	{
		hunts.GET("", controllers.ListHunts)
		hunts.GET("/:id", controllers.GetHunt)
	}

	auth := hunts.Group("")
	auth.Use(middlewares.AuthMiddleware())
	{
		auth.GET("/my/progress", controllers.MyHuntProgress)
		auth.POST("", controllers.CreateHunt)
		auth.PUT("/:id", controllers.UpdateHunt)
		auth.DELETE("/:id", controllers.DeleteHunt)
		auth.POST("/:id/join", controllers.JoinHunt)
		auth.POST("/:id/leave", controllers.LeaveHunt)
		auth.POST("/:id/rocks/:rockId/found", controllers.MarkRockFound)
	}
}
