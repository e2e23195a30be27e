package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Ensure FileBackend implements Backend
var _ Backend = (*FileBackend)(nil)

// FileBackend persists a profile collection to a single file
type FileBackend struct {
	path string
}

// NewFileBackend creates a backend for the given file path. The parent
// directory is created on the first write.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Location returns the file path
func (b *FileBackend) Location() string {
	return b.path
}

// Read loads the file contents. A missing file is not an error.
func (b *FileBackend) Read() ([]byte, error) {
	data, err := os.ReadFile(b.path) // #nosec G304 - path comes from application config
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrIO, b.path, err)
	}
	return data, nil
}

// Write replaces the file atomically via a temp file and rename
func (b *FileBackend) Write(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0700); err != nil {
		return fmt.Errorf("%w: failed to create directory for %s: %v", ErrIO, b.path, err)
	}

	tempPath := b.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("%w: failed to write temp file: %v", ErrIO, err)
	}

	if err := os.Rename(tempPath, b.path); err != nil {
		_ = os.Remove(tempPath) // Clean up temp file, ignore error
		return fmt.Errorf("%w: failed to atomically update %s: %v", ErrIO, b.path, err)
	}

	return nil
}
