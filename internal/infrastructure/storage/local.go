package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/pkg/logger"

	"github.com/google/uuid"
)

// LocalFileStore persists documents under a base directory. Returned paths
// are relative to the base and opaque to callers.
type LocalFileStore struct {
	basePath string
}

func NewLocalFileStore(basePath string) *LocalFileStore {
	return &LocalFileStore{basePath: basePath}
}

func (s *LocalFileStore) Store(ctx context.Context, content []byte, directory, filename string) (string, error) {
	// Prefix with a uuid so repeated uploads of the same filename never
	// overwrite each other.
	safeName := fmt.Sprintf("%s_%s", uuid.New().String(), filepath.Base(filename))
	relPath := filepath.Join(directory, safeName)
	fullPath := filepath.Join(s.basePath, relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return relPath, nil
}

func (s *LocalFileStore) Delete(ctx context.Context, path string) bool {
	// Reject traversal out of the base directory.
	cleaned := filepath.Clean(path)
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		logger.Warn("Refusing to delete file outside storage base: %s", path)
		return false
	}

	if err := os.Remove(filepath.Join(s.basePath, cleaned)); err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to delete stored file %s: %v", path, err)
		}
		return false
	}
	return true
}
