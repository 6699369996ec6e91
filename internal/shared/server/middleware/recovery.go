package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"ingest-gateway/internal/shared/server/respond"
	"ingest-gateway/internal/shared/telemetry"
)

// Recovery recovers from panics and returns the standard failure body.
// Stack traces go to the log, never to the caller.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				telemetry.Error("panic", map[string]any{
					"request_id": RequestIDFromContext(c),
					"error":      rec,
					"stack":      string(debug.Stack()),
					"path":       c.Request.URL.Path,
					"method":     c.Request.Method,
				})
				respond.Error(c, http.StatusInternalServerError, "internal server error")
			}
		}()
		c.Next()
	}
}
