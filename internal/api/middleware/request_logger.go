package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request: 5xx at error, 4xx at warn, the rest at info.
func RequestLogger(l *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header("X-Request-Id", reqID)
		c.Set("request_id", reqID)

		c.Next()

		lat := time.Since(start)
		status := c.Writer.Status()

		userID := c.GetString("user_id")

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := logrus.Fields{
			"request_id": reqID,
			"method":     c.Request.Method,
			"path":       route,
			"status":     status,
			"latency_ms": lat.Milliseconds(),
			"ip":         c.ClientIP(),
		}
		if userID != "" {
			fields["user_id"] = userID
		}
		if jobID := c.Query("jobId"); jobID != "" {
			fields["job_id"] = jobID
		}
		entry := l.WithFields(fields)

		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			entry.Error("request")
		case status >= 400:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}
