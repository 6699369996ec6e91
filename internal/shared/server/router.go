package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"ingest-gateway/internal/ingest"
	"ingest-gateway/internal/shared/config"
	"ingest-gateway/internal/shared/metrics"
	"ingest-gateway/internal/shared/server/middleware"
	"ingest-gateway/internal/shared/server/respond"
)

// RouterDeps are the pre-built dependencies the router wires together.
type RouterDeps struct {
	Config        config.Config
	Metrics       *metrics.Metrics
	IngestHandler *ingest.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		corsMiddleware(deps.Config.CORSAllowOrigins),
	)

	root := r.Group("")
	if deps.Config.RateLimitPerSec > 0 && deps.Config.RateLimitBurst > 0 {
		root.Use(middleware.RateLimit(middleware.RateLimitRule{
			Rate:  deps.Config.RateLimitPerSec,
			Burst: deps.Config.RateLimitBurst,
		}, nil))
	}
	deps.IngestHandler.RegisterRoutes(root)

	r.GET("/", func(c *gin.Context) {
		respond.OK(c, gin.H{
			"message": "ingest gateway",
			"at":      time.Now().UTC().Format(time.RFC3339),
		})
	})
	r.GET("/health", func(c *gin.Context) {
		respond.OK(c, gin.H{"ok": true})
	})
	if deps.Metrics != nil {
		r.GET("/metrics", deps.Metrics.Handler())
	}

	r.NoRoute(func(c *gin.Context) {
		respond.NotFound(c)
	})

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-Access-Token", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		// Mirror the upstream exporters' permissive default while keeping
		// credentials: echo whatever origin calls in.
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":3000"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
