package ports

import (
	"context"
	"io"
)

// BlobStore holds the raw bytes of uploaded files
type BlobStore interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, name string) error
	// URL returns the path clients use to stream the named blob
	URL(name string) string
}
