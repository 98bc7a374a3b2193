package hashcache

import (
	"log/slog"
	"maps"

	"github.com/spf13/afero"
)

// Cache maps file identities to previously computed hashes.
//
// A Cache is owned by a single goroutine. It does no locking; callers that
// share one, or share a persistence file between processes, must serialize
// access themselves.
type Cache struct {
	entries  map[Key]string
	path     string // persistence file Append writes to
	baseDir  string // root of the key space for relative paths
	fs       afero.Fs
	validate Validator
	logger   *slog.Logger
	stats    Stats
}

// Option defines a function that configures a Cache.
type Option func(*Cache)

// New creates an empty cache bound to the persistence file at path, which
// Append writes to, and to baseDir, against which relative paths read by Load
// are normalized. No I/O happens here.
func New(path, baseDir string, options ...Option) *Cache {
	cache := &Cache{
		entries:  make(map[Key]string),
		path:     path,
		baseDir:  baseDir,
		fs:       afero.NewOsFs(),
		validate: ValidateHash,
		logger:   slog.New(slog.DiscardHandler),
	}

	// Apply options
	for _, option := range options {
		option(cache)
	}

	return cache
}

// Get returns the cached hash for the identity, if any. path must be in the
// same form Load stores it: absolute, or relative to the base directory.
func (c *Cache) Get(path string, size, mtime uint64, algo Algorithm) (string, bool) {
	return c.Lookup(MakeKey(path, size, mtime, algo))
}

// Contains reports whether a hash is cached for the identity.
func (c *Cache) Contains(path string, size, mtime uint64, algo Algorithm) bool {
	_, ok := c.Get(path, size, mtime, algo)
	return ok
}

// Lookup returns the cached hash for a prebuilt key.
func (c *Cache) Lookup(key Key) (string, bool) {
	hash, ok := c.entries[key]
	return hash, ok
}

// Len returns the number of cached hashes.
func (c *Cache) Len() int {
	return len(c.entries)
}

// IsEmpty reports whether the cache holds no hashes.
func (c *Cache) IsEmpty() bool {
	return len(c.entries) == 0
}

// Entries returns a copy of the key to hash mapping.
func (c *Cache) Entries() map[Key]string {
	return maps.Clone(c.entries)
}

// Path returns the persistence file Append writes to.
func (c *Cache) Path() string {
	return c.path
}

// BaseDir returns the directory relative paths are normalized against.
func (c *Cache) BaseDir() string {
	return c.baseDir
}

// put inserts or overwrites an entry; the latest observation wins.
func (c *Cache) put(key Key, hash string) {
	c.entries[key] = hash
}
