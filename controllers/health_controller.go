package controllers

import (
	"context"
	"net/http"
	"os"
	"time"

	"rockspotter/db"

	"github.com/gin-gonic/gin"
)

const apiVersion = "1.0.0"

func Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to Rock Spotter API! 🪨",
		"version": apiVersion,
		"endpoints": gin.H{
			"users":         "/api/users",
			"rocks":         "/api/rocks",
			"hunts":         "/api/hunts",
			"achievements":  "/api/achievements",
			"notifications": "/api/ws",
		},
	})
}

// Health reports liveness and whether MongoDB answers a ping
func Health(c *gin.Context) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	database := "disconnected"
	if db.Connected(ctx) {
		database = "connected"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"message":     "Rock Spotter API is running!",
		"version":     apiVersion,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": env,
		"database":    database,
	})
}
