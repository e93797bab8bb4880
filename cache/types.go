package cache

import (
	"errors"
	"fmt"
)

// Stats counts cache activity since the cache was created.
type Stats struct {
	Hits      int64
	Misses    int64
	Downloads int64
}

// ErrEmptyContent is returned when a download completes without any bytes.
// An empty file is never a valid entry, so it is not persisted.
var ErrEmptyContent = errors.New("downloaded content is empty")

// ErrInvalidID is returned when an id cannot be used as a file name.
type ErrInvalidID struct {
	ID string
}

func (e *ErrInvalidID) Error() string {
	return fmt.Sprintf("invalid cache id %q", e.ID)
}

// ErrDownloadFailed is returned when populating an entry fails.
type ErrDownloadFailed struct {
	ID  string
	URL string
	Err error
}

func (e *ErrDownloadFailed) Error() string {
	return fmt.Sprintf("failed to download %s for %q: %v", e.URL, e.ID, e.Err)
}

func (e *ErrDownloadFailed) Unwrap() error {
	return e.Err
}
