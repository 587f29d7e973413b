package downloader

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transferservice/internal/adapters/httpclient"
)

func TestFetch(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte("file contents"))
	}))
	defer server.Close()

	body, err := NewHTTPDownloader(nil).Fetch(context.Background(), server.URL+"/f.bin")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "file contents", string(data))
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchNotFound(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	body, err := NewHTTPDownloader(nil).Fetch(context.Background(), server.URL+"/missing")
	assert.Nil(t, body)
	assert.ErrorIs(t, err, httpclient.ErrNotFound)
	assert.Equal(t, int32(1), calls.Load(), "no retries")
}

func TestFetchConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewHTTPDownloader(nil).Fetch(context.Background(), url)
	assert.Error(t, err)
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := httpclient.New(httpclient.Options{Timeout: 50 * time.Millisecond})
	_, err := NewHTTPDownloader(client).Fetch(context.Background(), server.URL)
	assert.Error(t, err)
}
