// Package storage persists attachment artifacts on the local filesystem.
// Every stored file lives directly under the store's directory under a
// generated collision-resistant name; callers keep the returned key in the
// attachment record and use it for later reads and removals.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

type LocalStore struct {
	dir string
}

// NewLocalStore opens (creating if needed) the artifact directory.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Save writes src under a generated key, preserving the original file's
// extension. Returns the key and the number of bytes written. On a partial
// write the file is removed before returning the error.
func (s *LocalStore) Save(originalFilename string, src io.Reader) (string, int64, error) {
	key := generateKey(originalFilename)
	path := filepath.Join(s.dir, key)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create artifact file: %w", err)
	}

	size, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("failed to write artifact: %w", err)
	}

	return key, size, nil
}

// Open returns a reader over the stored artifact.
func (s *LocalStore) Open(key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.dir, filepath.Base(key)))
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	return f, nil
}

// Remove deletes the stored artifact.
func (s *LocalStore) Remove(key string) error {
	if err := os.Remove(filepath.Join(s.dir, filepath.Base(key))); err != nil {
		return fmt.Errorf("failed to remove artifact: %w", err)
	}
	return nil
}

// Path returns the on-disk path of a stored artifact.
func (s *LocalStore) Path(key string) string {
	return filepath.Join(s.dir, filepath.Base(key))
}

// generateKey builds a storage name from a timestamp and a random component,
// keeping the original extension.
func generateKey(originalFilename string) string {
	ext := filepath.Ext(originalFilename)
	return fmt.Sprintf("attachments-%d-%s%s", time.Now().UnixNano(), uuid.NewString(), ext)
}
