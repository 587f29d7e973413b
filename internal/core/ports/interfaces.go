package ports

import (
	"context"
	"io"
)

// Fetcher defines the contract for reading a remote file.
type Fetcher interface {
	// Fetch issues a single GET for sourceURL. Non-2xx responses are
	// returned as errors before any of the body is consumed.
	// Returns a ReadCloser that the caller must close.
	Fetch(ctx context.Context, sourceURL string) (io.ReadCloser, error)
}

// Upload describes one file pushed to the destination.
type Upload struct {
	FileName    string // used as both the part name and the filename
	ContentType string // optional
	TargetPath  string
	Checksum    string
	Body        io.Reader
}

// Uploader defines the contract for pushing a staged file to the destination.
type Uploader interface {
	Upload(ctx context.Context, u Upload) error
}

// TempStore defines the contract for private scratch files.
type TempStore interface {
	// Acquire creates a uniquely named file and returns it open for writing.
	Acquire(ctx context.Context) (path string, w io.WriteCloser, err error)

	// Open reopens a staged file for reading.
	Open(path string) (io.ReadCloser, error)

	// Release removes the file. It is a no-op for empty or missing paths
	// and must not be called while the write handle is still open.
	Release(path string) error
}
