package hashcache

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Append writes record as one row at the end of the cache's persistence
// file, creating the file with a header row if it does not exist or is empty.
// The data is synced to storage before Append returns.
//
// The hash is not re-validated before writing. If it passes the validator the
// record is also indexed, under the same key a reload of the persistence file
// would give it, so Get sees it immediately.
//
// A *PersistError is returned if the file cannot be opened, written or synced,
// or if the record's path would not read back unchanged; the in-memory mapping
// is then unchanged.
func (c *Cache) Append(record Record) error {
	if !record.Algo.Known() {
		return &PersistError{Path: c.path, Err: fmt.Errorf("%w: %d", ErrUnknownAlgorithm, uint8(record.Algo))}
	}
	if !storablePath(record.Path) {
		return &PersistError{Path: c.path, Err: fmt.Errorf("%w: %q", ErrUnencodablePath, record.Path)}
	}

	f, err := c.fs.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &PersistError{Path: c.path, Err: err}
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return &PersistError{Path: c.path, Err: fmt.Errorf("failed to stat: %w", err)}
	}

	if err := c.writeRecord(f, record, info.Size() == 0); err != nil {
		_ = f.Close()
		return &PersistError{Path: c.path, Err: err}
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return &PersistError{Path: c.path, Err: fmt.Errorf("failed to sync: %w", err)}
	}
	if err := f.Close(); err != nil {
		return &PersistError{Path: c.path, Err: fmt.Errorf("failed to close: %w", err)}
	}

	c.stats.Appended++
	c.index(record)
	return nil
}

// writeRecord serializes one row, preceded by the header when requested.
func (c *Cache) writeRecord(w io.Writer, record Record, withHeader bool) error {
	fw, err := newFrameWriter(w, c.path)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(fw)
	cw.Comma = Delimiter
	if withHeader {
		if err := cw.Write(header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	if err := cw.Write(record.encode()); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush record: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("failed to finish frame: %w", err)
	}
	return nil
}

// index adds an appended record to the mapping if its hash validates.
func (c *Cache) index(record Record) {
	if !c.validate(record.Hash, record.Algo) {
		c.logger.Debug("appended record not indexed: invalid hash",
			"file", c.path, "path", record.Path, "algo", record.Algo)
		return
	}
	path := c.normalizePath(record.Path, filepath.Dir(c.path))
	c.put(MakeKey(path, record.Size, record.Time, record.Algo), record.Hash)
}
