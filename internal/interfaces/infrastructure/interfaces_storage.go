package interfaces

import "context"

// FileStore is the narrow boundary to document storage. Paths are opaque
// strings persisted on application and presentation rows.
type FileStore interface {
	Store(ctx context.Context, content []byte, directory, filename string) (string, error)
	Delete(ctx context.Context, path string) bool
}
