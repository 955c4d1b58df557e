package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khoido2003/natour-api/internal/service"
)

// Metrics observes every routed request except the listed probe paths.
// Requests that match no route share the "unmatched" label.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]bool, len(skip))
	for _, path := range skip {
		skipped[path] = true
	}

	return func(c *gin.Context) {
		if metricsSvc == nil || skipped[c.Request.URL.Path] {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
