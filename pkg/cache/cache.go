// Package cache stores per-file dependency graphs keyed by file content.
//
// A metadata file that has not changed since the last scan parses to the
// same graph, so scans look up graphs by the format that parses the file
// and a BLAKE3 digest of its path and text ([GraphKey]). Entries are encoded with
// MessagePack and compressed with zstd ([EncodeGraph]).
//
// # Backends
//
//   - [FileCache]: one file per entry under the user cache directory (CLI default)
//   - [RedisCache]: shared cache for CI runners and the HTTP server
//   - [NullCache]: caching disabled
//
// All backends implement [Cache] and are safe for concurrent use.
package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cache is a byte-oriented key-value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key and whether it was found.
	// Expired entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Clear removes every entry owned by the cache.
	Clear(ctx context.Context) error
	// Close releases resources held by the cache.
	Close() error
}

// DefaultTTL bounds how long a parsed graph stays cached. Keys are content
// hashes, so entries never go stale; the TTL only limits growth.
const DefaultTTL = 30 * 24 * time.Hour

// Backend names accepted by [Open].
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Options selects and configures a backend.
type Options struct {
	Backend  string
	Dir      string // file backend
	RedisURL string // redis backend, e.g. redis://localhost:6379/0
	Prefix   string // redis key prefix
}

// Open creates the backend named by opts.Backend. An empty backend selects
// the file cache in opts.Dir, or DefaultDir when Dir is empty.
func Open(opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendFile:
		dir := opts.Dir
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		return NewFileCache(dir)
	case BackendRedis:
		return NewRedisCache(opts.RedisURL, opts.Prefix)
	case BackendNone:
		return NewNullCache(), nil
	}
	return nil, fmt.Errorf("unknown cache backend %q (want file, redis or none)", opts.Backend)
}

// DefaultDir returns $XDG_CACHE_HOME/depscan, falling back to the platform's
// user cache directory.
func DefaultDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "depscan"), nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locate cache directory: %w", err)
	}
	return filepath.Join(dir, "depscan"), nil
}
