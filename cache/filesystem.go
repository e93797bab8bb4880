package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/singleflight"

	"github.com/infracollect/appcore/source"
)

// entryExt is the extension every persisted entry carries, whatever the
// actual image format.
const entryExt = ".png"

// DefaultDownloadTimeout bounds a single shared download.
const DefaultDownloadTimeout = 2 * time.Minute

// FilesystemCache implements Cache using the local filesystem.
//
// Concurrent Resolve calls for the same id within a process share one
// download. Processes sharing baseDir serialize downloads of the same id
// through a file lock, and the holder re-checks the cache before fetching.
type FilesystemCache struct {
	baseDir string
	fetcher source.Fetcher
	locker  *Locker
	group   singleflight.Group
	logger  logr.Logger

	downloadTimeout time.Duration

	hits      atomic.Int64
	misses    atomic.Int64
	downloads atomic.Int64
}

// Option configures a FilesystemCache.
type Option func(*FilesystemCache)

// WithLogger sets the logger used for cache activity.
func WithLogger(logger logr.Logger) Option {
	return func(c *FilesystemCache) {
		c.logger = logger
	}
}

// WithDownloadTimeout bounds each shared download. A download that exceeds
// it fails for every joined caller, and the next Resolve starts a new one.
// A non-positive value disables the bound.
func WithDownloadTimeout(d time.Duration) Option {
	return func(c *FilesystemCache) {
		c.downloadTimeout = d
	}
}

// NewFilesystemCache creates a new filesystem-based cache at the given
// directory. Entries are downloaded with fetcher.
func NewFilesystemCache(baseDir string, fetcher source.Fetcher, opts ...Option) *FilesystemCache {
	c := &FilesystemCache{
		baseDir: baseDir,
		fetcher: fetcher,
		locker:  NewLocker(filepath.Join(baseDir, ".locks")),
		logger:  logr.Discard(),

		downloadTimeout: DefaultDownloadTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns the location an entry for id is persisted at.
func (c *FilesystemCache) Path(id string) string {
	return filepath.Join(c.baseDir, id+entryExt)
}

// Lookup returns the path of a valid entry for id: a regular file with a
// size greater than zero. Any stat failure counts as absent.
func (c *FilesystemCache) Lookup(id string) (string, bool) {
	if validateID(id) != nil {
		return "", false
	}
	path := c.Path(id)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() <= 0 {
		return "", false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path, true
	}
	return absPath, true
}

// Resolve returns the local path for id, downloading url first on a miss.
//
// The download itself is not bound to ctx cancellation, since other callers
// may be waiting on it; ctx only bounds how long this caller waits. The
// download is bounded by the cache's download timeout instead.
func (c *FilesystemCache) Resolve(ctx context.Context, id, url string) (string, error) {
	if err := validateID(id); err != nil {
		return "", err
	}

	if path, ok := c.Lookup(id); ok {
		c.hits.Add(1)
		c.logger.V(1).Info("cache hit", "id", id, "path", path)
		return path, nil
	}
	c.misses.Add(1)

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(id, func() (interface{}, error) {
		downloadCtx := detached
		if c.downloadTimeout > 0 {
			var cancel context.CancelFunc
			downloadCtx, cancel = context.WithTimeout(detached, c.downloadTimeout)
			defer cancel()
		}
		return c.populate(downloadCtx, id, url)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			c.logger.V(1).Info("joined in-flight download", "id", id)
		}
		return res.Val.(string), nil
	}
}

// populate downloads url into the entry for id while holding the entry's
// file lock.
func (c *FilesystemCache) populate(ctx context.Context, id, url string) (string, error) {
	unlock, err := c.locker.AcquireExclusive(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to acquire cache lock: %w", err)
	}
	defer unlock()

	// Re-check cache - another process may have populated it while we waited for the lock
	if path, ok := c.Lookup(id); ok {
		return path, nil
	}

	tmpDir := filepath.Join(c.baseDir, ".tmp")
	if err := os.MkdirAll(tmpDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(tmpDir, id+"-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	c.downloads.Add(1)
	c.logger.V(1).Info("downloading", "id", id, "url", url)

	if err := c.fetcher.Download(ctx, url, tmpPath); err != nil {
		c.logger.Error(err, "download failed", "id", id, "url", url)
		return "", &ErrDownloadFailed{ID: id, URL: url, Err: err}
	}

	info, err := os.Stat(tmpPath)
	if err != nil {
		return "", &ErrDownloadFailed{ID: id, URL: url, Err: err}
	}
	if info.Size() == 0 {
		return "", &ErrDownloadFailed{ID: id, URL: url, Err: ErrEmptyContent}
	}

	// Atomic rename from temp to final location
	if err := os.Rename(tmpPath, c.Path(id)); err != nil {
		return "", fmt.Errorf("failed to move download into cache: %w", err)
	}

	path, ok := c.Lookup(id)
	if !ok {
		return "", fmt.Errorf("cache entry for %q is not valid after download", id)
	}
	return path, nil
}

// Stats returns the activity counters.
func (c *FilesystemCache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Downloads: c.downloads.Load(),
	}
}

// Clear removes every persisted entry and leftover temporary file.
// It is not safe to call while downloads are in flight.
func (c *FilesystemCache) Clear() error {
	entries, err := os.ReadDir(c.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), entryExt) {
			continue
		}
		path := filepath.Join(c.baseDir, entry.Name())
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}

	if err := os.RemoveAll(filepath.Join(c.baseDir, ".tmp")); err != nil {
		return fmt.Errorf("failed to remove temp directory: %w", err)
	}
	return nil
}

// validateID rejects ids that would not stay a single file name inside the
// cache directory. ':' is rejected for Windows drive letters and alternate
// data streams.
func validateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\:`) || strings.ContainsRune(id, 0) {
		return &ErrInvalidID{ID: id}
	}
	return nil
}
