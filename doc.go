/*
Package hashcache provides a persistent cache of file hashes keyed by file identity.

It lets a tool that hashes many files (a backup, dedup or verification utility) skip
recomputing the digest of any file whose path, size, modification time and algorithm
are unchanged since the last run.

# Overview

A Cache holds an in-memory mapping from an identity key to a hex digest. The mapping is
filled from one or more record files with Load and grown with Append, which writes new
records to the cache's own persistence file.

Each identity is turned into a Key by MakeKey. Load, Append and Get all go through it,
so a lookup hits exactly when the identity matches a loaded record.

# Basic Usage

Creating a cache:

	cache := hashcache.New("/data/hashes.csv", "/data")

Merging existing record files:

	n, err := cache.Load("/data/hashes.csv")
	if err != nil {
	    var loadErr *hashcache.LoadError
	    if errors.As(err, &loadErr) {
	        log.Printf("skipping %s: %v", loadErr.Path, loadErr.Err)
	    }
	}

Checking before hashing:

	hash, ok := cache.Get("photos/a.jpg", size, mtime, hashcache.SHA256)
	if !ok {
	    hash = computeSHA256(path)
	    err := cache.Append(hashcache.Record{
	        Path: "photos/a.jpg",
	        Size: size,
	        Time: mtime,
	        Algo: hashcache.SHA256,
	        Hash: hash,
	    })
	    if err != nil {
	        log.Fatalf("Failed to persist hash: %v", err)
	    }
	}

# Record Files

Record files are semicolon-delimited text with a header row:

	path;size;time;algo;hash
	photos/a.jpg;52311;1700000000;SHA256;9f86d081884c7d65...

Columns are matched by header name. The algo column holds the algorithm's display
name (MD5, SHA1, SHA224, SHA256, SHA384, SHA512, XXH64, BLAKE3). Files whose name ends
in .zst are read and written as zstd streams.

# Paths

Absolute paths are stored in keys verbatim. A relative path is resolved against the
directory of the record file it was read from, then made relative to the cache's base
directory. With base directory /base, the row "sub/file.bin" in /base/dir/hashes.csv
is cached as "dir/sub/file.bin". Paths that fall outside the base directory keep their
original spelling.

# Error Handling

Rows that do not parse, or whose hash is not valid for its algorithm, are skipped and
only reduce the count Load returns (LoadWithStats breaks the skips down). Structural
failures are returned as typed errors:

  - *LoadError: the record file could not be opened or read, or its header is unusable
  - *PersistError: Append could not open, write or sync the persistence file

Neither leaves the cache in a partial state.

# Concurrency

A Cache is not safe for concurrent use, and nothing coordinates two processes appending
to the same file. Wrap the whole load/append sequence in a lock if you need either.
*/
package hashcache
