package bootstrap

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"ingest-gateway/internal/ingest"
	"ingest-gateway/internal/shared/config"
	"ingest-gateway/internal/shared/metrics"
	"ingest-gateway/internal/shared/server"
	"ingest-gateway/internal/shared/storage/blob"
	"ingest-gateway/internal/shared/telemetry"
)

// App holds shared dependencies built once at process start.
type App struct {
	Config        config.Config
	Router        *gin.Engine
	Store         blob.Writer
	Metrics       *metrics.Metrics
	IngestService *ingest.Service
	IngestHandler *ingest.Handler
}

// Build prepares dependencies and wires the router. The base data directory
// is created here so the first request never races directory setup.
func Build(cfg config.Config) (*App, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	if cfg.IngestToken == "" {
		telemetry.Warn("ingest token not configured; all requests will be rejected", map[string]any{
			"env": cfg.Env,
		})
	}

	store := blob.New(afero.NewBasePathFs(osFs, cfg.DataDir))
	m := metrics.New()
	svc := ingest.NewService(store, nil)
	handler := ingest.NewHandler(svc, cfg.IngestToken, m)

	app := &App{
		Config:        cfg,
		Store:         store,
		Metrics:       m,
		IngestService: svc,
		IngestHandler: handler,
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:        cfg,
		Metrics:       m,
		IngestHandler: handler,
	})

	return app, nil
}
