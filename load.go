package hashcache

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Load merges the record file at source into the cache and returns how many
// records were inserted.
//
// Rows that do not parse, or whose hash the validator rejects, are skipped
// silently. Relative paths are resolved against the directory containing
// source and re-expressed relative to the cache's base directory when they
// fall under it; absolute paths are kept verbatim. Relative keys are cleaned,
// so "." and ".." elements are resolved. Entries loaded later overwrite
// earlier ones with the same key. An empty file loads 0 records.
//
// A *LoadError is returned if the file cannot be opened or read, or if its
// header lacks a required column. The cache is then unchanged.
func (c *Cache) Load(source string) (int, error) {
	stats, err := c.LoadWithStats(source)
	return stats.Loaded, err
}

// LoadWithStats is Load, reporting skipped rows by category as well.
func (c *Cache) LoadWithStats(source string) (LoadStats, error) {
	f, err := c.fs.Open(source)
	if err != nil {
		return LoadStats{}, &LoadError{Path: source, Err: err}
	}
	r, err := newDecodingReader(f, source)
	if err != nil {
		_ = f.Close()
		return LoadStats{}, &LoadError{Path: source, Err: err}
	}
	defer r.Close()

	type staged struct {
		key  Key
		hash string
	}
	var (
		stats   LoadStats
		pending []staged
	)

	err = c.readRecords(r, source, &stats, func(key Key, hash string) {
		pending = append(pending, staged{key: key, hash: hash})
	})
	if err != nil {
		return LoadStats{}, &LoadError{Path: source, Err: err}
	}

	// Commit only once the whole file has been read.
	for _, p := range pending {
		c.put(p.key, p.hash)
	}
	c.stats.FilesLoaded++
	c.stats.RowsLoaded += stats.Loaded
	c.stats.RowsMalformed += stats.Malformed
	c.stats.RowsInvalid += stats.Invalid

	c.logger.Debug("loaded record file",
		"file", source,
		"rows", stats.Rows,
		"loaded", stats.Loaded,
		"malformed", stats.Malformed,
		"invalid", stats.Invalid,
	)

	return stats, nil
}

// readRecords parses the delimited stream and calls emit for every valid row.
// Only structural failures are returned.
func (c *Cache) readRecords(r io.Reader, source string, stats *LoadStats, emit func(Key, string)) error {
	cr := csv.NewReader(r)
	cr.Comma = Delimiter
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		// An empty file holds no records.
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	idx, err := parseHeader(head)
	if err != nil {
		return err
	}

	dir := filepath.Dir(source)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		stats.Rows++

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			stats.Malformed++
			c.logger.Debug("skipping malformed row", "file", source, "line", parseErr.StartLine, "error", parseErr.Err)
			continue
		}
		if err != nil {
			return fmt.Errorf("reading records: %w", err)
		}

		line, _ := cr.FieldPos(0)
		record, err := idx.decode(row)
		if err != nil {
			stats.Malformed++
			c.logger.Debug("skipping malformed row", "file", source, "line", line, "error", err)
			continue
		}
		if !c.validate(record.Hash, record.Algo) {
			stats.Invalid++
			c.logger.Debug("skipping invalid hash", "file", source, "line", line, "algo", record.Algo, "hash", record.Hash)
			continue
		}

		path := c.normalizePath(record.Path, dir)
		emit(MakeKey(path, record.Size, record.Time, record.Algo), record.Hash)
		stats.Loaded++
	}
}

// normalizePath maps a path read from a record file in dir into the cache's
// key space. Rooted paths are returned unchanged. Relative paths are joined to
// dir and made relative to the base directory; if the result would escape the
// base directory the original string is returned.
func (c *Cache) normalizePath(path, dir string) string {
	if isRooted(path) {
		return path
	}
	joined := filepath.Join(dir, path)
	rel, err := filepath.Rel(c.baseDir, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

// isRooted reports whether path starts with a root marker on any platform.
func isRooted(path string) bool {
	return strings.HasPrefix(path, "/") || strings.HasPrefix(path, `\`)
}
