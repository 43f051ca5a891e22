// internal/storage/store.go
package storage

import "context"

// Store defines the interface for journal document backends. Keys are
// slash-separated relative paths.
type Store interface {
	// Write stores the document at the given key, replacing any
	// previous content.
	Write(ctx context.Context, key string, data []byte) error

	// Read retrieves the document at the given key.
	Read(ctx context.Context, key string) ([]byte, error)

	// Exists reports whether a document is present at the given key.
	Exists(ctx context.Context, key string) (bool, error)
}
