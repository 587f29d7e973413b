package uploader

import (
	"context"
	"fmt"
	"path"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"transferservice/internal/core/ports"
	"transferservice/internal/transfer"
)

// BlobUploader implements ports.Uploader by writing objects to a bucket.
// Objects are stored under <targetPath>/<fileName>.
type BlobUploader struct {
	bucket    *blob.Bucket
	chunkSize int
}

// OpenBlobUploader opens the bucket named by bucketURL (s3://, gs://,
// file://, mem://).
func OpenBlobUploader(ctx context.Context, bucketURL string, chunkSize int) (*BlobUploader, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucketURL, err)
	}
	return NewBlobUploader(bucket, chunkSize), nil
}

// NewBlobUploader wraps an already opened bucket.
func NewBlobUploader(bucket *blob.Bucket, chunkSize int) *BlobUploader {
	return &BlobUploader{bucket: bucket, chunkSize: chunkSize}
}

// Key returns the object key for a target path and file name.
func Key(targetPath, fileName string) string {
	return strings.TrimPrefix(path.Join(targetPath, fileName), "/")
}

// Upload streams up.Body into the bucket.
func (u *BlobUploader) Upload(ctx context.Context, up ports.Upload) error {
	opts := &blob.WriterOptions{ContentType: up.ContentType}
	if up.Checksum != "" {
		opts.Metadata = map[string]string{"xxh64": up.Checksum}
	}

	// Cancelling the writer's context discards a partially written object.
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	key := Key(up.TargetPath, up.FileName)
	w, err := u.bucket.NewWriter(wctx, key, opts)
	if err != nil {
		return fmt.Errorf("open writer for %s: %w", key, err)
	}
	if _, err := transfer.Copy(ctx, w, up.Body, u.chunkSize); err != nil {
		cancel()
		_ = w.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("commit %s: %w", key, err)
	}
	return nil
}

// Close releases the bucket.
func (u *BlobUploader) Close() error {
	return u.bucket.Close()
}
