package routes

import (
	"rockspotter/controllers"
	"rockspotter/middlewares"

	"github.com/gin-gonic/gin"
)

// SetupRockRoutes sets up rock browsing, posting and social routes
func SetupRockRoutes(router *gin.RouterGroup) {
	rocks := router.Group("/rocks")
	{
		rocks.GET("", controllers.ListRocks)
		rocks.GET("/nearby", controllers.NearbyRocks)
		rocks.GET("/:id", controllers.GetRock)
	}

	auth := rocks.Group("")
	auth.Use(middlewares.AuthMiddleware())
	{
		auth.POST("", controllers.CreateRock)
		auth.POST("/upload-url", controllers.RockUploadURL)
		auth.POST("/identify", controllers.IdentifyRock)
		auth.PUT("/:id", controllers.UpdateRock)
		auth.DELETE("/:id", controllers.DeleteRock)
		auth.POST("/:id/like", controllers.LikeRock)
		auth.DELETE("/:id/like", controllers.UnlikeRock)
		auth.POST("/:id/comment", controllers.CommentOnRock)
		auth.POST("/:id/comments", controllers.CommentOnRock)
	}
}
