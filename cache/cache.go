// Package cache persists remote images on the local filesystem, keyed by a
// caller supplied identifier.
package cache

import "context"

// Cache defines the interface for the local image cache.
type Cache interface {
	// Resolve returns the local path for id, downloading url into the cache
	// first if no valid entry exists.
	Resolve(ctx context.Context, id, url string) (localPath string, err error)

	// Lookup returns the local path for id if a valid entry exists.
	// It never downloads.
	Lookup(id string) (localPath string, ok bool)

	// Path returns the location an entry for id is persisted at.
	Path(id string) string
}
