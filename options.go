package hashcache

import (
	"log/slog"

	"github.com/spf13/afero"
)

// WithFs sets a custom filesystem for the cache.
// This is primarily useful for testing with in-memory filesystems.
//
// Example:
//
//	cache := hashcache.New("hashes.csv", ".", hashcache.WithFs(afero.NewMemMapFs()))
func WithFs(fs afero.Fs) Option {
	return func(c *Cache) {
		c.fs = fs
	}
}

// WithValidator replaces the default hash validator (ValidateHash).
// Rows whose hash the validator rejects are skipped by Load and are not
// indexed by Append.
func WithValidator(validate Validator) Option {
	return func(c *Cache) {
		c.validate = validate
	}
}

// WithLogger sets the logger used to report skipped rows and file activity.
// Everything is logged at debug level. The default discards all output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}
