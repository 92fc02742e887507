package remotetest

import (
	"time"

	"github.com/Dhoini/customer-console/pkg/logger"
	"github.com/gin-gonic/gin"
)

// LoggerMiddleware logs every request with its status and latency
func LoggerMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		latencyTime := time.Since(startTime)
		statusCode := c.Writer.Status()

		switch {
		case statusCode >= 500:
			log.Error("[%s] %s %d %s", c.Request.Method, c.Request.RequestURI, statusCode, latencyTime)
		case statusCode >= 400:
			log.Warn("[%s] %s %d %s", c.Request.Method, c.Request.RequestURI, statusCode, latencyTime)
		default:
			log.Debug("[%s] %s %d %s", c.Request.Method, c.Request.RequestURI, statusCode, latencyTime)
		}
	}
}
