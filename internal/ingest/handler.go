package ingest

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ingest-gateway/internal/shared/metrics"
	"ingest-gateway/internal/shared/server/respond"
	"ingest-gateway/internal/shared/telemetry"
)

const (
	maxFileBytes = 50 << 20 // multipart uploads
	maxJSONBytes = 30 << 20 // JSON bodies
)

// Handler wires the ingestion endpoint to the service.
type Handler struct {
	Svc     *Service
	Token   string
	Metrics *metrics.Metrics

	// Transport caps; zero means the defaults above.
	MaxFileBytes int64
	MaxJSONBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, token string, m *metrics.Metrics) *Handler {
	return &Handler{Svc: svc, Token: token, Metrics: m}
}

// RegisterRoutes attaches ingestion routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/ingest", h.ingest)
}

func (h *Handler) ingest(c *gin.Context) {
	start := time.Now()
	mode := ModeJSON
	limit := h.MaxJSONBytes
	if limit <= 0 {
		limit = maxJSONBytes
	}
	if IsMultipart(c.Request) {
		mode = ModeFile
		limit = h.MaxFileBytes
		if limit <= 0 {
			limit = maxFileBytes
		}
	}
	defer func() {
		if h.Metrics != nil {
			h.Metrics.ObserveRequest(string(mode), c.Writer.Status(), time.Since(start).Seconds())
		}
	}()

	if err := Authorize(c.GetHeader("X-Access-Token"), c.Query("token"), h.Token); err != nil {
		respond.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	// Declared sizes are rejected up front; MaxBytesReader still guards
	// chunked bodies with no Content-Length.
	if c.Request.ContentLength > limit {
		respond.Error(c, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	req, err := Extract(c.Request)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingKind), errors.Is(err, ErrMissingFile):
			respond.Error(c, http.StatusBadRequest, err.Error())
		case isTooLarge(err):
			respond.Error(c, http.StatusRequestEntityTooLarge, "payload too large")
		default:
			respond.Error(c, http.StatusBadRequest, "invalid request body")
		}
		return
	}

	art, err := h.Svc.Ingest(c.Request.Context(), req)
	if err != nil {
		telemetry.Error("ingest.store_failed", map[string]any{
			"kind":  req.Kind,
			"mode":  string(mode),
			"error": err.Error(),
		})
		respond.Error(c, http.StatusInternalServerError, "failed to store payload")
		return
	}

	// Context fields picked up by the logging middleware. The partition key
	// comes from the artifact so logs and metrics can never disagree with
	// the stored path, even across a midnight boundary.
	c.Set("kind", art.Kind)
	c.Set("file", art.Path)
	c.Set("tenant", art.Partition.Tenant)
	c.Set("category", art.Partition.Category)

	if h.Metrics != nil {
		h.Metrics.ObserveArtifact(art.Partition.Category, art.Size)
	}

	respond.OK(c, toResponse(art, mode))
}

func isTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}
