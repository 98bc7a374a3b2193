package hashcache

// LoadStats describes the outcome of loading one record file.
type LoadStats struct {
	Rows      int // data rows read, excluding the header
	Loaded    int // rows inserted into the cache
	Malformed int // rows that did not parse into a Record
	Invalid   int // rows whose hash failed validation
}

// Skipped returns the number of rows that were not inserted.
func (s LoadStats) Skipped() int {
	return s.Malformed + s.Invalid
}

// Stats represents cumulative cache statistics.
type Stats struct {
	Entries       int // Distinct keys currently cached
	FilesLoaded   int // Successful Load calls
	RowsLoaded    int // Rows inserted by Load, counting overwrites
	RowsMalformed int // Rows skipped because they did not parse
	RowsInvalid   int // Rows skipped because their hash failed validation
	Appended      int // Records written by Append
}

// Stats returns statistics about the cache.
func (c *Cache) Stats() Stats {
	stats := c.stats
	stats.Entries = len(c.entries)
	return stats
}
