package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Form field values (kind, meta) are small; cap reads defensively.
const maxFieldBytes = 2 << 20

// IsMultipart reports whether the request carries a multipart file upload.
// Everything else is handled as JSON.
func IsMultipart(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data")
}

// Extract normalizes an inbound request into a Request, choosing the
// transport mode from the content type.
func Extract(r *http.Request) (Request, error) {
	if IsMultipart(r) {
		return extractMultipart(r)
	}
	return extractJSON(r)
}

// extractMultipart walks the parts in body order. The first file part wins;
// later file parts are ignored. kind and meta fields may appear before or
// after the file.
func extractMultipart(r *http.Request) (Request, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return Request{}, fmt.Errorf("read multipart body: %w", err)
	}

	var (
		kind     string
		metaRaw  string
		content  []byte
		filename string
		haveFile bool
	)

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Request{}, fmt.Errorf("read multipart body: %w", err)
		}

		if isFilePart(part.Header.Get("Content-Disposition")) {
			if haveFile {
				continue // first file only, rest are dropped
			}
			data, err := io.ReadAll(part)
			if err != nil {
				return Request{}, fmt.Errorf("read file part: %w", err)
			}
			content = data
			filename = part.FileName()
			haveFile = true
			continue
		}

		value, err := io.ReadAll(io.LimitReader(part, maxFieldBytes))
		if err != nil {
			return Request{}, fmt.Errorf("read form field: %w", err)
		}
		switch part.FormName() {
		case "kind":
			kind = string(value)
		case "meta":
			metaRaw = string(value)
		}
	}

	if kind == "" {
		return Request{}, ErrMissingKind
	}
	if !haveFile {
		return Request{}, ErrMissingFile
	}
	if filename == "" {
		filename = fmt.Sprintf("%s-%s.txt", kind, uuid.NewString())
	}

	return Request{
		Mode:     ModeFile,
		Kind:     kind,
		Meta:     parseMeta(metaRaw),
		Content:  content,
		Filename: filename,
	}, nil
}

type jsonEnvelope struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
	Meta any    `json:"meta"`
}

// extractJSON parses the body as a JSON envelope. An undecodable body is
// treated as empty, which fails the kind check.
func extractJSON(r *http.Request) (Request, error) {
	var env jsonEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		env = jsonEnvelope{}
	}

	if env.Kind == "" {
		return Request{}, ErrMissingKind
	}

	content, err := json.MarshalIndent(struct {
		Data any `json:"data"`
		Meta any `json:"meta"`
	}{Data: env.Data, Meta: env.Meta}, "", "  ")
	if err != nil {
		return Request{}, fmt.Errorf("encode payload: %w", err)
	}

	return Request{
		Mode:    ModeJSON,
		Kind:    env.Kind,
		Meta:    coerceMeta(env.Meta),
		Content: content,
	}, nil
}

// parseMeta decodes the optional meta form field. Metadata is advisory:
// malformed JSON is swallowed and defaults to an empty mapping.
func parseMeta(raw string) Metadata {
	if raw == "" {
		return Metadata{}
	}
	var meta Metadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil || meta == nil {
		return Metadata{}
	}
	return meta
}

func coerceMeta(raw any) Metadata {
	if m, ok := raw.(map[string]any); ok {
		return Metadata(m)
	}
	return Metadata{}
}

// isFilePart distinguishes file parts from plain form fields: a part is a
// file iff its disposition carries a filename parameter, even an empty one.
func isFilePart(disposition string) bool {
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return false
	}
	_, ok := params["filename"]
	return ok
}
