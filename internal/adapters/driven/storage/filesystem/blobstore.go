// Package filesystem keeps original report bytes on local disk.
package filesystem

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
)

// Ensure BlobStore implements the interface.
var _ driven.BlobStore = (*BlobStore)(nil)

// BlobStore stores PDFs as <dir>/<hash>.pdf.
type BlobStore struct {
	dir string
}

// NewBlobStore creates a blob store rooted at dir, creating it if needed.
func NewBlobStore(dir string) (*BlobStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("blob directory is required: %w", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &BlobStore{dir: dir}, nil
}

// Dir returns the root directory.
func (s *BlobStore) Dir() string {
	return s.dir
}

// Put writes data under hash. An existing blob is left untouched.
func (s *BlobStore) Put(_ context.Context, hash string, data []byte) error {
	path, err := s.path(hash)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	f, err := os.CreateTemp(s.dir, "."+hash+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()      //nolint:errcheck
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("write blob: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()      //nolint:errcheck
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("sync blob: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("store blob: %w", err)
	}
	return nil
}

// Get reads the bytes stored under hash.
func (s *BlobStore) Get(_ context.Context, hash string) ([]byte, error) {
	path, err := s.path(hash)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

// path rejects anything that is not a hex digest so hashes cannot escape dir.
func (s *BlobStore) path(hash string) (string, error) {
	if hash == "" {
		return "", fmt.Errorf("empty blob hash: %w", domain.ErrInvalidInput)
	}
	if _, err := hex.DecodeString(hash); err != nil {
		return "", fmt.Errorf("blob hash %q: %w", hash, domain.ErrInvalidInput)
	}
	return filepath.Join(s.dir, hash+".pdf"), nil
}
