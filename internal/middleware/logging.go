// Package middleware holds the Gin middleware.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"medichat-go/pkg/log"
)

// RequestLogger logs one structured line per HTTP request. Bodies are not
// logged: chat queries and uploaded documents can carry patient data.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		log.Infow("HTTP Request Log",
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
	}
}
