package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/takwin-center/takwin-api/internal/service"
)

// Metrics times every request and feeds the HTTP histograms. Matched routes
// are labelled by their template (":sessionId" stays a single series);
// unmatched ones fall back to the raw path so 404 probes remain visible.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	if metrics == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(started))
	}
}
