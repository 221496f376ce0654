package middlewares

import (
	"time"

	"rockspotter/logger"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs every request with status and duration
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		// query strings are left out since they may carry a token
		path := c.Request.URL.Path

		c.Next()

		logger.Request(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
