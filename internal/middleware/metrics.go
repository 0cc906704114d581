package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ndtutor/tutor-api/internal/service"
)

// Metrics records one HTTP observation per request. The route template
// (":teacherId", not the actual ID) keys the metric so cardinality stays
// bounded.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
