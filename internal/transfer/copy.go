// Package transfer copies byte streams in bounded chunks.
//
// Copy never holds more than one chunk of the payload in memory: it reads at
// most chunkSize bytes, writes them, and only then asks the source for more.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// DefaultChunkSize is the buffer size used when none is configured (10MiB).
const DefaultChunkSize = 262144 * 4 * 10

// Error reports a failed copy and how far it got.
type Error struct {
	Op      string // "read", "write" or "cancel"
	Written int64
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s after %d bytes: %v", e.Op, e.Written, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Copy streams src into dst using a single chunkSize buffer and returns the
// number of bytes written. Partial writes are not rolled back.
func Copy(ctx context.Context, dst io.Writer, src io.Reader, chunkSize int) (int64, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	buf := make([]byte, chunkSize)

	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, &Error{Op: "cancel", Written: written, Err: err}
		}

		n, rerr := src.Read(buf)
		if n > 0 {
			wn, werr := dst.Write(buf[:n])
			written += int64(wn)
			if werr != nil {
				return written, &Error{Op: "write", Written: written, Err: werr}
			}
			if wn != n {
				return written, &Error{Op: "write", Written: written, Err: io.ErrShortWrite}
			}
		}

		if errors.Is(rerr, io.EOF) {
			return written, nil
		}
		if rerr != nil {
			return written, &Error{Op: "read", Written: written, Err: rerr}
		}
	}
}
