package source

import (
	"context"
	"net/url"
	"strings"
)

// Mux dispatches downloads to a Fetcher chosen by URL scheme.
type Mux struct {
	fetchers map[string]Fetcher
}

// NewMux returns a Mux with http and https handled by an HTTPFetcher using
// http.DefaultClient.
func NewMux() *Mux {
	m := &Mux{fetchers: make(map[string]Fetcher)}
	m.Handle("http", NewHTTPFetcher(nil))
	m.Handle("https", NewHTTPFetcher(nil))
	return m
}

// Handle registers f for scheme, replacing any previous registration.
func (m *Mux) Handle(scheme string, f Fetcher) {
	m.fetchers[strings.ToLower(scheme)] = f
}

// Download implements Fetcher.
func (m *Mux) Download(ctx context.Context, rawURL, destPath string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &ErrUnsupportedScheme{URL: rawURL}
	}
	f, ok := m.fetchers[strings.ToLower(u.Scheme)]
	if !ok {
		return &ErrUnsupportedScheme{URL: rawURL, Scheme: u.Scheme}
	}
	return f.Download(ctx, rawURL, destPath)
}
