package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"transferservice/internal/adapters/httpclient"
	"transferservice/internal/core/ports"
	"transferservice/internal/transfer"
)

// ErrUnsafeTargetPath is returned for target paths with "." or ".." segments,
// which would resolve outside the upload base URL.
var ErrUnsafeTargetPath = errors.New("target path must not contain . or .. segments")

// Headers set on every upload request.
const (
	HeaderLocalPath = "local_path"
	HeaderChecksum  = "X-Checksum-Xxh64"
)

// HTTPUploader implements ports.Uploader with a streamed multipart POST.
type HTTPUploader struct {
	client          *http.Client
	baseURL         string
	targetPathInURL bool
	chunkSize       int
}

// NewHTTPUploader creates an uploader posting to baseURL. When targetPathInURL
// is set the target path is appended to baseURL as path segments, otherwise it
// travels in the local_path header.
func NewHTTPUploader(client *http.Client, baseURL string, targetPathInURL bool, chunkSize int) *HTTPUploader {
	if client == nil {
		client = httpclient.New(httpclient.DefaultOptions())
	}
	return &HTTPUploader{
		client:          client,
		baseURL:         baseURL,
		targetPathInURL: targetPathInURL,
		chunkSize:       chunkSize,
	}
}

// Endpoint returns the URL a file with the given target path is posted to.
func (u *HTTPUploader) Endpoint(targetPath string) (string, error) {
	if !u.targetPathInURL {
		return u.baseURL, nil
	}
	segments := strings.Split(strings.Trim(targetPath, "/"), "/")
	for _, seg := range segments {
		if name, err := url.PathUnescape(seg); err != nil || name == "." || name == ".." {
			return "", fmt.Errorf("%w: %q", ErrUnsafeTargetPath, targetPath)
		}
	}
	return url.JoinPath(u.baseURL, segments...)
}

// Upload posts up.Body as a single multipart part. The body is streamed
// through a pipe so the file is never held in memory.
func (u *HTTPUploader) Upload(ctx context.Context, up ports.Upload) error {
	endpoint, err := u.Endpoint(up.TargetPath)
	if err != nil {
		return fmt.Errorf("failed to build upload URL: %w", err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if !u.targetPathInURL {
		req.Header.Set(HeaderLocalPath, up.TargetPath)
	}
	if up.Checksum != "" {
		req.Header.Set(HeaderChecksum, up.Checksum)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		pw.CloseWithError(u.writeBody(ctx, mw, up))
	}()

	resp, err := u.client.Do(req)
	// Unblocks the writer if the request ended before the body was consumed.
	pr.Close()
	<-done
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := httpclient.CheckStatus(resp); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (u *HTTPUploader) writeBody(ctx context.Context, mw *multipart.Writer, up ports.Upload) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(up.FileName), escapeQuotes(up.FileName)))
	contentType := up.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := transfer.Copy(ctx, part, up.Body, u.chunkSize); err != nil {
		return err
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
