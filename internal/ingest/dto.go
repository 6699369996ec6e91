package ingest

// Response is the success contract for POST /ingest. Size is reported for
// file-mode drops only.
type Response struct {
	OK   bool     `json:"ok"`
	Kind string   `json:"kind"`
	File string   `json:"file"`
	Meta Metadata `json:"meta"`
	Size *int64   `json:"size,omitempty"`
}

func toResponse(art StoredArtifact, mode Mode) Response {
	resp := Response{
		OK:   true,
		Kind: art.Kind,
		File: art.Path,
		Meta: art.Meta,
	}
	if mode == ModeFile {
		size := art.Size
		resp.Size = &size
	}
	return resp
}
