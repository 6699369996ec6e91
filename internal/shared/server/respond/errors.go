package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ingest-gateway/internal/shared/telemetry"
)

// ErrorBody is the wire shape of every failure response.
type ErrorBody struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// Error sends a failure response and logs it.
func Error(c *gin.Context, status int, message string) {
	telemetry.Error("http.error", map[string]any{
		"status":     status,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	})

	c.AbortWithStatusJSON(status, ErrorBody{OK: false, Message: message})
}

// NotFound sends the 404 contract, echoing the requested path.
func NotFound(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusNotFound, ErrorBody{OK: false, Message: "not found", Path: c.Request.URL.Path})
}
