// Package blob persists ingested payloads to a filesystem subtree rooted at
// the configured base directory. Paths handed back to callers are always
// relative to that root.
package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// Artifact describes one committed payload.
type Artifact struct {
	Path string
	Size int64
	MIME string
}

// Writer commits payload bytes under a storage key.
type Writer interface {
	Write(ctx context.Context, key string, r io.Reader) (Artifact, error)
}

// Store implements Writer on an afero filesystem. Production uses an OsFs
// scoped to the data directory; tests use MemMapFs.
type Store struct {
	fs afero.Fs
}

// New creates a store on the given filesystem.
func New(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

const sniffLen = 3072 // mimetype's default detection window

// Write commits the reader's content at key, creating intermediate
// directories as needed. An existing file of the same name is overwritten;
// last writer wins. Every key segment must be a plain name: empty, "." and
// ".." segments are rejected so a key can never address outside the root or
// collapse a partition level.
func (s *Store) Write(ctx context.Context, key string, r io.Reader) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}

	clean := strings.TrimPrefix(key, "/")
	for _, seg := range strings.Split(clean, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return Artifact{}, fmt.Errorf("invalid storage key %q", key)
		}
	}

	if dir := path.Dir(clean); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return Artifact{}, fmt.Errorf("mkdir: %w", err)
		}
	}

	f, err := s.fs.OpenFile(clean, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return Artifact{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sniff := make([]byte, sniffLen)
	n, readErr := io.ReadFull(r, sniff)
	if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
		return Artifact{}, fmt.Errorf("read payload: %w", readErr)
	}
	sniff = sniff[:n]

	size := int64(0)
	if n > 0 {
		if _, err := f.Write(sniff); err != nil {
			return Artifact{}, fmt.Errorf("write payload: %w", err)
		}
		size += int64(n)
	}

	written, err := io.Copy(f, r)
	if err != nil {
		return Artifact{}, fmt.Errorf("write payload: %w", err)
	}
	size += written

	return Artifact{
		Path: clean,
		Size: size,
		MIME: mimetype.Detect(sniff).String(),
	}, nil
}
