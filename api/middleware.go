package api

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs every request and turns panics into a 500 envelope.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			fields := logrus.Fields{
				"request_id": c.GetString("request_id"),
				"method":     c.Request.Method,
				"path":       c.Request.URL.Path,
				"query":      c.Request.URL.RawQuery,
				"client_ip":  c.ClientIP(),
				"latency":    time.Since(start).String(),
			}

			if recovered := recover(); recovered != nil {
				logger.WithFields(fields).
					WithField("stack", string(debug.Stack())).
					Error(fmt.Sprintf("panic: %v", recovered))
				fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
				c.Abort()
				return
			}

			fields["status"] = c.Writer.Status()
			entry := logger.WithFields(fields)
			switch {
			case len(c.Errors) > 0:
				entry.WithField("errors", c.Errors.String()).Error("request failed")
			case c.Writer.Status() >= http.StatusInternalServerError:
				entry.Error("request failed")
			default:
				entry.Info("request")
			}
		}()

		c.Next()
	}
}
