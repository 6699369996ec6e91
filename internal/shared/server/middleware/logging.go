package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ingest-gateway/internal/shared/telemetry"
)

// Logging emits a structured log line per completed request. Handlers may
// stash ingestion context (kind, tenant, category, file) in the gin context
// and it is picked up here.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		for _, key := range []string{"kind", "tenant", "category", "file"} {
			if val := c.GetString(key); val != "" {
				fields[key] = val
			}
		}

		telemetry.Info("request.complete", fields)
	}
}
