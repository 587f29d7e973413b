package tempstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DefaultPrefix is prepended to every staged file name.
const DefaultPrefix = "transfer-"

// FileStore implements ports.TempStore on the local filesystem.
type FileStore struct {
	BaseDir string
	Prefix  string
}

// NewFileStore creates a FileStore rooted at baseDir, creating the directory
// if needed. An empty baseDir means os.TempDir().
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create temp directory %s: %w", baseDir, err)
	}
	return &FileStore{BaseDir: baseDir, Prefix: DefaultPrefix}, nil
}

// Acquire creates a new private file for staging.
func (s *FileStore) Acquire(ctx context.Context) (string, io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	path := filepath.Join(s.BaseDir, s.Prefix+uuid.NewString()+".part")
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create staged file %s: %w", path, err)
	}
	return path, file, nil
}

// Open reopens a staged file for reading.
func (s *FileStore) Open(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open staged file %s: %w", path, err)
	}
	return file, nil
}

// Release removes a staged file. Missing files are not an error.
func (s *FileStore) Release(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove staged file %s: %w", path, err)
	}
	return nil
}
