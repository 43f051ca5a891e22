// internal/storage/localfs.go
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalFS implements Store on the local filesystem.
type LocalFS struct {
	basePath string
}

// NewLocalFS creates a LocalFS rooted at basePath, creating it if needed.
func NewLocalFS(basePath string) (*LocalFS, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating base path: %w", err)
	}
	return &LocalFS{basePath: basePath}, nil
}

func (l *LocalFS) fullPath(key string) string {
	return filepath.Join(l.basePath, key)
}

func (l *LocalFS) Write(ctx context.Context, key string, data []byte) error {
	fullPath := l.fullPath(key)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("creating directories: %w", err)
	}
	return os.WriteFile(fullPath, data, 0644)
}

func (l *LocalFS) Read(ctx context.Context, key string) ([]byte, error) {
	return os.ReadFile(l.fullPath(key))
}

func (l *LocalFS) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(l.fullPath(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}
