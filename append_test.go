package hashcache

import (
	"errors"
	"maps"
	"path/filepath"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/afero"
)

func TestAppendCreatesFile(t *testing.T) {
	cache, memFs, base := setupTestCache(t, "append-test")
	hash := digest(t, SHA256, "one")

	record := Record{Path: "file.bin", Size: 10, Time: 100, Algo: SHA256, Hash: hash}
	if err := cache.Append(record); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	want := "path;size;time;algo;hash\n" +
		"file.bin;10;100;SHA256;" + hash + "\n"
	if got := readFile(t, memFs, filepath.Join(base, "hashes.csv")); got != want {
		t.Errorf("file content = %q, want %q", got, want)
	}
}

func TestAppendWritesHeaderOnce(t *testing.T) {
	cache, memFs, base := setupTestCache(t, "append-test")
	h1 := digest(t, MD5, "one")
	h2 := digest(t, MD5, "two")

	for _, r := range []Record{
		{Path: "one.bin", Size: 1, Time: 1, Algo: MD5, Hash: h1},
		{Path: "two.bin", Size: 2, Time: 2, Algo: MD5, Hash: h2},
	} {
		if err := cache.Append(r); err != nil {
			t.Fatalf("Append(%s) failed: %v", r.Path, err)
		}
	}

	lines := strings.Split(strings.TrimSuffix(readFile(t, memFs, filepath.Join(base, "hashes.csv")), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("file has %d lines, want 3: %q", len(lines), lines)
	}
	if lines[0] != "path;size;time;algo;hash" {
		t.Errorf("first line = %q, want header", lines[0])
	}
	if strings.Count(strings.Join(lines, "\n"), "path;size;time;algo;hash") != 1 {
		t.Errorf("header written more than once: %q", lines)
	}
	if lines[2] != "two.bin;2;2;MD5;"+h2 {
		t.Errorf("last line = %q", lines[2])
	}
}

func TestAppendToEmptyFile(t *testing.T) {
	cache, memFs, base := setupTestCache(t, "append-test")
	createTestFile(t, memFs, filepath.Join(base, "hashes.csv"), nil)
	hash := digest(t, SHA1, "x")

	if err := cache.Append(Record{Path: "x", Size: 1, Time: 1, Algo: SHA1, Hash: hash}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got := readFile(t, memFs, filepath.Join(base, "hashes.csv"))
	if !strings.HasPrefix(got, "path;size;time;algo;hash\n") {
		t.Errorf("empty file did not get a header: %q", got)
	}
}

func TestAppendToExistingFile(t *testing.T) {
	cache, memFs, base := setupTestCache(t, "append-test")
	source := filepath.Join(base, "hashes.csv")
	h1 := digest(t, SHA256, "old")
	h2 := digest(t, SHA256, "new")
	createRecordFile(t, memFs, source, "old.bin;1;1;SHA256;"+h1)

	if err := cache.Append(Record{Path: "new.bin", Size: 2, Time: 2, Algo: SHA256, Hash: h2}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	want := "path;size;time;algo;hash\n" +
		"old.bin;1;1;SHA256;" + h1 + "\n" +
		"new.bin;2;2;SHA256;" + h2 + "\n"
	if got := readFile(t, memFs, source); got != want {
		t.Errorf("file content = %q, want %q", got, want)
	}
}

func TestAppendRoundTrip(t *testing.T) {
	cache, memFs, base := setupTestCache(t, "roundtrip-test")

	records := []Record{
		{Path: "plain.bin", Size: 1, Time: 10, Algo: SHA256, Hash: digest(t, SHA256, "plain")},
		{Path: "semi;colon.bin", Size: 2, Time: 20, Algo: SHA1, Hash: digest(t, SHA1, "semi")},
		{Path: "quote\"d.bin", Size: 3, Time: 30, Algo: MD5, Hash: digest(t, MD5, "quote")},
		{Path: "new\nline.bin", Size: 4, Time: 40, Algo: XXH64, Hash: digest(t, XXH64, "newline")},
		{Path: "carriage\rreturn.bin", Size: 6, Time: 60, Algo: SHA224, Hash: digest(t, SHA224, "cr")},
		{Path: "/abs/file.bin", Size: 5, Time: 50, Algo: BLAKE3, Hash: digest(t, BLAKE3, "abs")},
		{Path: "deep/dir/f.bin", Size: 1 << 40, Time: 1 << 33, Algo: SHA384, Hash: digest(t, SHA384, "deep")},
	}
	for _, r := range records {
		if err := cache.Append(r); err != nil {
			t.Fatalf("Append(%q) failed: %v", r.Path, err)
		}
	}

	reloaded := New(filepath.Join(base, "hashes.csv"), base, WithFs(memFs))
	assertLoaded(t, reloaded, filepath.Join(base, "hashes.csv"), len(records))
	for _, r := range records {
		assertHit(t, reloaded, r.Path, r.Size, r.Time, r.Algo, r.Hash)
	}
	if !maps.Equal(cache.Entries(), reloaded.Entries()) {
		t.Errorf("appended entries differ from reloaded ones:\n%s\n%s",
			spew.Sdump(cache.Entries()), spew.Sdump(reloaded.Entries()))
	}
}

func TestAppendIndexes(t *testing.T) {
	memFs := afero.NewMemMapFs()
	persist := "/base/sub/hashes.csv"
	if err := memFs.MkdirAll("/base/sub", 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	cache := New(persist, "/base", WithFs(memFs))
	hash := digest(t, SHA256, "indexed")

	if err := cache.Append(Record{Path: "file.bin", Size: 3, Time: 30, Algo: SHA256, Hash: hash}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// Indexed under the key a reload of the persistence file produces
	assertHit(t, cache, filepath.Join("sub", "file.bin"), 3, 30, SHA256, hash)

	reloaded := New(persist, "/base", WithFs(memFs))
	assertLoaded(t, reloaded, persist, 1)
	if !maps.Equal(cache.Entries(), reloaded.Entries()) {
		t.Errorf("appended view differs from reloaded view:\n%s\n%s",
			spew.Sdump(cache.Entries()), spew.Sdump(reloaded.Entries()))
	}
}

func TestAppendOverwritesLoadedEntry(t *testing.T) {
	cache, memFs, base := setupTestCache(t, "overwrite-test")
	source := filepath.Join(base, "hashes.csv")
	old := digest(t, SHA256, "old")
	updated := digest(t, SHA256, "new")
	createRecordFile(t, memFs, source, "f.bin;1;1;SHA256;"+old)
	assertLoaded(t, cache, source, 1)

	if err := cache.Append(Record{Path: "f.bin", Size: 1, Time: 1, Algo: SHA256, Hash: updated}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	assertHit(t, cache, "f.bin", 1, 1, SHA256, updated)
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
}

func TestAppendInvalidHashNotIndexed(t *testing.T) {
	cache, memFs, base := setupTestCache(t, "invalid-append-test")

	record := Record{Path: "bad.bin", Size: 1, Time: 1, Algo: SHA256, Hash: "deadbeef"}
	if err := cache.Append(record); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// Written as given, but never indexed
	if got := readFile(t, memFs, filepath.Join(base, "hashes.csv")); !strings.Contains(got, "bad.bin;1;1;SHA256;deadbeef") {
		t.Errorf("record not written: %q", got)
	}
	assertMiss(t, cache, "bad.bin", 1, 1, SHA256)

	reloaded := New(filepath.Join(base, "hashes.csv"), base, WithFs(memFs))
	assertLoaded(t, reloaded, filepath.Join(base, "hashes.csv"), 0)
}

func TestAppendErrors(t *testing.T) {
	hash := digest(t, SHA256, "x")
	record := Record{Path: "x.bin", Size: 1, Time: 1, Algo: SHA256, Hash: hash}

	t.Run("open failure", func(t *testing.T) {
		fs := &failingFs{Fs: afero.NewMemMapFs(), failOpenFile: true}
		cache := New("/base/hashes.csv", "/base", WithFs(fs))

		err := cache.Append(record)
		assertPersistError(t, err, "/base/hashes.csv", errMockOpen)
		assertMiss(t, cache, "x.bin", 1, 1, SHA256)
	})

	t.Run("sync failure", func(t *testing.T) {
		fs := &failingFs{Fs: afero.NewMemMapFs(), failSync: true}
		cache := New("/base/hashes.csv", "/base", WithFs(fs))

		err := cache.Append(record)
		assertPersistError(t, err, "/base/hashes.csv", errMockSync)
		if cache.Len() != 0 {
			t.Errorf("Len() = %d after failed append, want 0", cache.Len())
		}
		if stats := cache.Stats(); stats.Appended != 0 {
			t.Errorf("Stats().Appended = %d, want 0", stats.Appended)
		}
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		memFs := afero.NewMemMapFs()
		cache := New("/base/hashes.csv", "/base", WithFs(memFs))

		bad := record
		bad.Algo = Algorithm(0)
		err := cache.Append(bad)
		assertPersistError(t, err, "/base/hashes.csv", ErrUnknownAlgorithm)

		exists, err := afero.Exists(memFs, "/base/hashes.csv")
		if err != nil {
			t.Fatalf("Failed to check file: %v", err)
		}
		if exists {
			t.Errorf("persistence file created for unserializable record")
		}
	})

	t.Run("path with CRLF", func(t *testing.T) {
		memFs := afero.NewMemMapFs()
		cache := New("/base/hashes.csv", "/base", WithFs(memFs))

		bad := record
		bad.Path = "a\r\nb"
		err := cache.Append(bad)
		assertPersistError(t, err, "/base/hashes.csv", ErrUnencodablePath)
		assertMiss(t, cache, "a\r\nb", 1, 1, SHA256)

		exists, err := afero.Exists(memFs, "/base/hashes.csv")
		if err != nil {
			t.Fatalf("Failed to check file: %v", err)
		}
		if exists {
			t.Errorf("persistence file created for unstorable path")
		}
	})

	t.Run("cache usable afterwards", func(t *testing.T) {
		fs := &failingFs{Fs: afero.NewMemMapFs(), failOpenFile: true}
		cache := New("/base/hashes.csv", "/base", WithFs(fs))
		if err := cache.Append(record); err == nil {
			t.Fatal("Append succeeded, want error")
		}

		fs.failOpenFile = false
		if err := cache.Append(record); err != nil {
			t.Fatalf("Append after recovery failed: %v", err)
		}
		assertHit(t, cache, "x.bin", 1, 1, SHA256, hash)
	})
}

func assertPersistError(t *testing.T, err error, path string, target error) {
	t.Helper()

	var persistErr *PersistError
	if !errors.As(err, &persistErr) {
		t.Fatalf("error = %T %v, want *PersistError", err, err)
	}
	if persistErr.Path != path {
		t.Errorf("PersistError.Path = %q, want %q", persistErr.Path, path)
	}
	if !errors.Is(err, target) {
		t.Errorf("error = %v, want errors.Is %v", err, target)
	}
}
