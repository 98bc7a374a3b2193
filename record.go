package hashcache

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Delimiter separates fields in a record file.
const Delimiter = ';'

// Record is one persisted fact: a file identity and the digest computed for it.
type Record struct {
	Path string    // absolute, or relative to the record file's directory
	Size uint64    // size in bytes
	Time uint64    // modification time in seconds since the epoch
	Algo Algorithm // algorithm the hash was computed with
	Hash string    // digest in lowercase hex
}

// Column names, in the order rows are written.
const (
	colPath = "path"
	colSize = "size"
	colTime = "time"
	colAlgo = "algo"
	colHash = "hash"
)

var header = []string{colPath, colSize, colTime, colAlgo, colHash}

// Key returns the cache key for the record's identity, taking its path verbatim.
func (r Record) Key() Key {
	return MakeKey(r.Path, r.Size, r.Time, r.Algo)
}

// Validate checks every field of the record and returns a *ValidationError
// listing all problems found, or nil.
func (r Record) Validate(validate Validator) error {
	var errs []error
	if r.Path == "" {
		errs = append(errs, errors.New("empty path"))
	} else if !storablePath(r.Path) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnencodablePath, r.Path))
	}
	if !r.Algo.Known() {
		errs = append(errs, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, uint8(r.Algo)))
	} else if !validate(r.Hash, r.Algo) {
		errs = append(errs, fmt.Errorf("%w for %s: %q", ErrInvalidHash, r.Algo, r.Hash))
	}
	return newValidationError(errs)
}

// storablePath reports whether path survives a write and reread unchanged.
// The reader folds a quoted "\r\n" into "\n".
func storablePath(path string) bool {
	return !strings.Contains(path, "\r\n")
}

// columnIndex maps each required column name to its position in a header row.
type columnIndex struct {
	width                        int
	path, size, time, algo, hash int
}

// parseHeader locates the required columns by name.
func parseHeader(fields []string) (columnIndex, error) {
	pos := make(map[string]int, len(fields))
	for i, f := range fields {
		if _, dup := pos[f]; !dup {
			pos[f] = i
		}
	}

	var missing []error
	lookup := func(name string) int {
		i, ok := pos[name]
		if !ok {
			missing = append(missing, fmt.Errorf("%w: %s", ErrMissingColumn, name))
		}
		return i
	}

	idx := columnIndex{
		width: len(fields),
		path:  lookup(colPath),
		size:  lookup(colSize),
		time:  lookup(colTime),
		algo:  lookup(colAlgo),
		hash:  lookup(colHash),
	}
	if len(missing) > 0 {
		return columnIndex{}, errors.Join(missing...)
	}
	return idx, nil
}

// decode turns one row into a Record. The row must have exactly as many
// fields as the header.
func (idx columnIndex) decode(row []string) (Record, error) {
	if len(row) != idx.width {
		return Record{}, fmt.Errorf("expected %d fields, got %d", idx.width, len(row))
	}

	size, err := strconv.ParseUint(row[idx.size], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("size: %w", err)
	}
	mtime, err := strconv.ParseUint(row[idx.time], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("time: %w", err)
	}
	algo, err := ParseAlgorithm(row[idx.algo])
	if err != nil {
		return Record{}, err
	}

	return Record{
		Path: row[idx.path],
		Size: size,
		Time: mtime,
		Algo: algo,
		Hash: row[idx.hash],
	}, nil
}

// encode renders the record in header order.
func (r Record) encode() []string {
	return []string{
		r.Path,
		strconv.FormatUint(r.Size, 10),
		strconv.FormatUint(r.Time, 10),
		r.Algo.String(),
		r.Hash,
	}
}
