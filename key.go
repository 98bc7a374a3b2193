package hashcache

import (
	"strconv"
	"strings"
)

// keySeparator joins the identity fields of a Key.
const keySeparator = '|'

// Key is the opaque, comparable cache key for a file identity.
// The zero Key matches nothing that MakeKey produces.
//
// MakeKey is the only way to build one, so load, append and lookup can never
// disagree on the format.
type Key struct {
	s string
}

// MakeKey builds the key for (path, size, mtime, algo). The path is used as
// given; callers looking up entries loaded from a record file must pass the
// path in its normalized form (see Cache.Load).
func MakeKey(path string, size, mtime uint64, algo Algorithm) Key {
	var b strings.Builder
	b.Grow(len(path) + 48)
	b.WriteString(path)
	b.WriteByte(keySeparator)
	b.WriteString(strconv.FormatUint(size, 10))
	b.WriteByte(keySeparator)
	b.WriteString(strconv.FormatUint(mtime, 10))
	b.WriteByte(keySeparator)
	b.WriteString(algo.String())
	return Key{s: b.String()}
}

// String returns the rendered key, e.g. "dir/file.bin|42|1700000000|SHA256".
// This is useful for debugging and logging.
func (k Key) String() string {
	return k.s
}

// IsZero reports whether k is the zero Key.
func (k Key) IsZero() bool {
	return k.s == ""
}
