// Package source downloads remote objects to local paths.
package source

import (
	"context"
	"fmt"
)

// Fetcher downloads the object at a URL.
type Fetcher interface {
	// Download writes the object at rawURL to destPath, creating or
	// truncating it. Implementations must return an error for any response
	// that is not a successful transfer.
	Download(ctx context.Context, rawURL, destPath string) error
}

// ErrUnexpectedStatus is returned when an HTTP transfer completes with a
// non-2xx status.
type ErrUnexpectedStatus struct {
	URL        string
	StatusCode int
}

func (e *ErrUnexpectedStatus) Error() string {
	return fmt.Sprintf("download of %s returned status %d", e.URL, e.StatusCode)
}

// ErrUnsupportedScheme is returned by Mux for a URL scheme without a fetcher.
type ErrUnsupportedScheme struct {
	URL    string
	Scheme string
}

func (e *ErrUnsupportedScheme) Error() string {
	return fmt.Sprintf("unsupported URL scheme %q in %s", e.Scheme, e.URL)
}

// ErrInvalidS3URL is returned when a URL cannot be split into bucket and key.
type ErrInvalidS3URL struct {
	URL string
}

func (e *ErrInvalidS3URL) Error() string {
	return fmt.Sprintf("invalid S3 URL %q: expected s3://bucket/key", e.URL)
}
