package ingest

// Mode is the transport mode of an inbound request.
type Mode string

const (
	// ModeFile is a multipart/form-data upload carrying a binary file.
	ModeFile Mode = "file"
	// ModeJSON covers every other content type; the body is parsed as JSON.
	ModeJSON Mode = "json"
)

// Metadata is the schema-less key/value mapping callers attach to a drop.
// Only shopId is ever interpreted; everything else passes through opaquely.
type Metadata map[string]any

// ShopID returns the tenant identifier when present as a string.
func (m Metadata) ShopID() string {
	if m == nil {
		return ""
	}
	if id, ok := m["shopId"].(string); ok {
		return id
	}
	return ""
}

// Request is the normalized form of one inbound drop, produced by the
// payload extractor. It lives for the duration of a single HTTP request.
type Request struct {
	Mode     Mode
	Kind     string
	Meta     Metadata
	Content  []byte
	Filename string // file mode only; synthesized when the upload has none
}

// StoredArtifact describes one successfully persisted payload. Artifacts are
// written exactly once and never tracked afterward.
type StoredArtifact struct {
	Path      string
	Size      int64
	MIME      string
	Kind      string
	Meta      Metadata
	Partition PartitionKey
}

// PartitionKey is the (tenant, category, date) tuple that determines the
// storage subdirectory. It only ever exists embodied in the artifact path.
type PartitionKey struct {
	Tenant   string
	Category string
	Date     string
}
