package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"transferservice/internal/adapters/httpclient"
)

// HTTPDownloader implements ports.Fetcher using standard HTTP.
type HTTPDownloader struct {
	client *http.Client
}

// NewHTTPDownloader creates a new HTTPDownloader. A nil client gets the
// package defaults.
func NewHTTPDownloader(client *http.Client) *HTTPDownloader {
	if client == nil {
		client = httpclient.New(httpclient.DefaultOptions())
	}
	return &HTTPDownloader{client: client}
}

// Fetch issues one GET for sourceURL and returns the response body stream.
func (d *HTTPDownloader) Fetch(ctx context.Context, sourceURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}

	if err := httpclient.CheckStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	return resp.Body, nil
}
