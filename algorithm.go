package hashcache

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
)

// HashFunc defines a function that creates a new hash.Hash instance.
type HashFunc func() hash.Hash

// Algorithm identifies the hashing algorithm a cached digest was computed with.
// Its textual form (String) is what the persistence file stores.
type Algorithm uint8

// Supported algorithms. The zero value is not a valid Algorithm.
const (
	MD5 Algorithm = iota + 1
	SHA1
	SHA224
	SHA256
	SHA384
	SHA512
	XXH64
	BLAKE3
)

type algorithmInfo struct {
	name    string
	size    int
	newHash HashFunc
}

var algorithms = map[Algorithm]algorithmInfo{
	MD5:    {name: "MD5", size: md5.Size, newHash: md5.New},
	SHA1:   {name: "SHA1", size: sha1.Size, newHash: sha1.New},
	SHA224: {name: "SHA224", size: sha256.Size224, newHash: sha256.New224},
	SHA256: {name: "SHA256", size: sha256.Size, newHash: sha256.New},
	SHA384: {name: "SHA384", size: sha512.Size384, newHash: sha512.New384},
	SHA512: {name: "SHA512", size: sha512.Size, newHash: sha512.New},
	XXH64:  {name: "XXH64", size: 8, newHash: func() hash.Hash { return xxhash.New() }},
	BLAKE3: {name: "BLAKE3", size: 32, newHash: func() hash.Hash { return blake3.New() }},
}

// Algorithms returns every known algorithm in declaration order.
func Algorithms() []Algorithm {
	return []Algorithm{MD5, SHA1, SHA224, SHA256, SHA384, SHA512, XXH64, BLAKE3}
}

// ParseAlgorithm returns the algorithm whose display name is exactly name.
func ParseAlgorithm(name string) (Algorithm, error) {
	for _, a := range Algorithms() {
		if algorithms[a].name == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Known reports whether a is one of the registered algorithms.
func (a Algorithm) Known() bool {
	_, ok := algorithms[a]
	return ok
}

// String returns the display name, e.g. "SHA256".
func (a Algorithm) String() string {
	if info, ok := algorithms[a]; ok {
		return info.name
	}
	return fmt.Sprintf("Algorithm(%d)", uint8(a))
}

// New returns a fresh hash.Hash for the algorithm, or nil if it is unknown.
func (a Algorithm) New() hash.Hash {
	info, ok := algorithms[a]
	if !ok {
		return nil
	}
	return info.newHash()
}

// DigestSize returns the digest length in bytes, or 0 for an unknown algorithm.
func (a Algorithm) DigestSize() int {
	return algorithms[a].size
}

// MarshalText implements encoding.TextMarshaler.
func (a Algorithm) MarshalText() ([]byte, error) {
	if !a.Known() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, uint8(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Algorithm) UnmarshalText(text []byte) error {
	parsed, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
