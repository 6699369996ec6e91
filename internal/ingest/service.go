package ingest

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	"ingest-gateway/internal/shared/storage/blob"
	"ingest-gateway/internal/shared/util"
)

const fallbackTenant = "unknown"

// Service carries a normalized request through partitioning and storage.
// It holds no per-request state; concurrent calls share only the
// filesystem subtree behind the writer.
type Service struct {
	Store blob.Writer
	Now   func() time.Time
}

// NewService constructs a Service; now may be nil for wall-clock time.
func NewService(store blob.Writer, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{Store: store, Now: now}
}

// Ingest partitions and persists one normalized request, returning the
// stored artifact. The artifact path is relative to the storage root.
func (s *Service) Ingest(ctx context.Context, req Request) (StoredArtifact, error) {
	key := s.Partition(req)

	filename := util.SanitizeName(req.Filename)
	if req.Mode == ModeJSON {
		filename = util.SanitizeName(fmt.Sprintf("%s-%s.json", req.Kind, uuid.NewString()))
	}
	if !usableName(filename) {
		filename = fmt.Sprintf("%s-%s.txt", util.SanitizeName(req.Kind), uuid.NewString())
	}

	art, err := s.Store.Write(ctx, path.Join(key.Tenant, key.Category, key.Date, filename), bytes.NewReader(req.Content))
	if err != nil {
		return StoredArtifact{}, fmt.Errorf("store payload: %w", err)
	}

	return StoredArtifact{
		Path:      art.Path,
		Size:      art.Size,
		MIME:      art.MIME,
		Kind:      req.Kind,
		Meta:      req.Meta,
		Partition: key,
	}, nil
}

// usableName reports whether a sanitized token can serve as a path segment.
// "." and ".." survive sanitization because dots are in the allowed
// alphabet, but they are directory references: joined into a storage key
// they collapse a partition level instead of naming a file.
func usableName(s string) bool {
	return s != "" && s != "." && s != ".."
}

// Partition derives the (tenant, category, date) tuple for a request.
// The date is fixed at handling time in UTC; callers cannot override it.
func (s *Service) Partition(req Request) PartitionKey {
	tenant := util.SanitizeName(req.Meta.ShopID())
	if !usableName(tenant) {
		tenant = fallbackTenant
	}

	category := CategoryJSON
	if req.Mode == ModeFile {
		category = ResolveCategory(req.Kind)
	}

	return PartitionKey{
		Tenant:   tenant,
		Category: category,
		Date:     s.Now().UTC().Format("2006-01-02"),
	}
}
