package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

// slowRequest marks access lines that took long enough to be worth a look.
const slowRequest = 5 * time.Second

// RequestLogger writes one access line per request. Bodies are never logged;
// the :id path param is logged as user_id and hashed by the logger.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		began := time.Now()
		c.Next()
		elapsed := time.Since(began)

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()
		kv := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
			"bytes", c.Writer.Size(),
		}
		if id := c.Param("id"); id != "" {
			kv = append(kv, "user_id", id)
		}
		if elapsed >= slowRequest {
			kv = append(kv, "slow", true)
		}
		if last := c.Errors.Last(); last != nil {
			kv = append(kv, "error", last.Error())
		}

		l := log.WithContext(c.Request.Context())
		switch {
		case status >= 500:
			l.Error("http request", kv...)
		case status >= 400:
			l.Warn("http request", kv...)
		default:
			l.Info("http request", kv...)
		}
	}
}
