// Package filestore defines the binary file storage port and its adapters.
// The core never interprets stored bytes; it names files deterministically
// (`Doc<documentID>.<ext>`) and checks existence.
package filestore

import (
	"context"
	"path"
	"strings"
)

// FileRef is the opaque handle to a stored file.
type FileRef string

// Store is the consumer-side port over external binary storage.
type Store interface {
	// Store persists the bytes under a name derived from suggestedName and
	// returns the handle.
	Store(ctx context.Context, data []byte, suggestedName string) (FileRef, error)
	Delete(ctx context.Context, ref FileRef) error
	Exists(ctx context.Context, ref FileRef) (bool, error)
}

// ExtensionOf returns the lowercase extension of a stored file, without the
// dot. Pure naming convention; no adapter round-trip needed.
func ExtensionOf(ref FileRef) string {
	ext := path.Ext(string(ref))
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
