package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore writes blobs into a local directory served under urlPrefix
type DiskStore struct {
	root      string
	urlPrefix string
}

// NewDiskStore creates the root directory if needed
func NewDiskStore(root, urlPrefix string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &DiskStore{root: root, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

// Root returns the directory blobs are written to
func (s *DiskStore) Root() string {
	return s.root
}

// Put writes r to <root>/<name>. Names are flat; path separators are rejected.
func (s *DiskStore) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create blob: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write blob: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to write blob: %w", err)
	}

	return nil
}

// Delete removes a blob; deleting a missing blob is not an error
func (s *DiskStore) Delete(ctx context.Context, name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// URL returns the public path of the blob
func (s *DiskStore) URL(name string) string {
	return s.urlPrefix + "/" + name
}

func (s *DiskStore) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid blob name %q", name)
	}
	return filepath.Join(s.root, name), nil
}
