// Package httpclient builds the outbound HTTP client shared by the downloader
// and uploader and classifies non-2xx responses.
package httpclient

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Common errors.
var (
	ErrNotFound     = errors.New("http: resource not found")
	ErrForbidden    = errors.New("http: access forbidden")
	ErrUnauthorized = errors.New("http: unauthorized")
	ErrServerError  = errors.New("http: server error")
)

// Options configures the HTTP client.
type Options struct {
	// Timeout for individual requests, including reading the body.
	// Zero means no timeout.
	Timeout time.Duration

	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 10
	MaxIdleConnsPerHost int
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:             30 * time.Minute, // files can be large
		MaxIdleConnsPerHost: 10,
	}
}

// New creates an http.Client with the given options.
func New(opts Options) *http.Client {
	if opts.MaxIdleConnsPerHost <= 0 {
		opts.MaxIdleConnsPerHost = DefaultOptions().MaxIdleConnsPerHost
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
		MaxIdleConns:        opts.MaxIdleConnsPerHost * 2,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  true, // relay bytes exactly as served
	}
	return &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
	}
}

// StatusError is returned for a non-2xx response.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Status string
	Body   string // first bytes of the response body, if any
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: unexpected status %s", e.Method, e.URL, e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Unwrap maps well-known status codes to sentinel errors.
func (e *StatusError) Unwrap() error {
	switch {
	case e.Code == http.StatusNotFound:
		return ErrNotFound
	case e.Code == http.StatusForbidden:
		return ErrForbidden
	case e.Code == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Code >= 500:
		return ErrServerError
	default:
		return nil
	}
}

const maxErrorBody = 512

// CheckStatus returns nil for 2xx responses and a *StatusError otherwise.
// For failures a short prefix of the body is captured; the caller still owns
// and must close resp.Body.
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	serr := &StatusError{
		Code:   resp.StatusCode,
		Status: resp.Status,
	}
	if resp.Request != nil {
		serr.Method = resp.Request.Method
		serr.URL = resp.Request.URL.Redacted()
	}
	if serr.Status == "" {
		serr.Status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	if resp.Body != nil {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		serr.Body = strings.TrimSpace(string(b))
	}
	return serr
}
