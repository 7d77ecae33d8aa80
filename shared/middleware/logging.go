package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request, at Warn for server errors
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := logrus.Fields{
			"method":    c.Request.Method,
			"path":      path,
			"status":    status,
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		}
		if p, err := GetPrincipal(c); err == nil {
			fields["organisation_id"] = p.OrganisationID
			fields["user_id"] = p.UserID
		}

		entry := logrus.WithFields(fields)
		if status >= 500 {
			entry.Warn("Request failed")
			return
		}
		entry.Info("Request handled")
	}
}
