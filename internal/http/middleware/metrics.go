package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pillars-backend/internal/observability"
)

const unmatchedRoute = "unmatched"

// Metrics observes per-route latency and in-flight requests. Routes listed in
// skip (the scrape endpoint, health probes) are not observed. A nil m
// disables the middleware.
func Metrics(m *observability.Metrics, skip ...string) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	ignored := make(map[string]bool, len(skip))
	for _, s := range skip {
		ignored[s] = true
	}
	return func(c *gin.Context) {
		if ignored[c.FullPath()] {
			c.Next()
			return
		}
		m.ApiInflightInc()
		began := time.Now()
		defer func() {
			m.ApiInflightDec()
			m.ObserveAPI(c.Request.Method, routeLabel(c), strconv.Itoa(c.Writer.Status()), time.Since(began))
		}()
		c.Next()
	}
}

// routeLabel keeps label cardinality bounded: raw paths never become labels.
func routeLabel(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return unmatchedRoute
}
