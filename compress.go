package hashcache

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
)

// CompressedExt marks record files stored as a sequence of zstd frames.
const CompressedExt = ".zst"

func isCompressed(path string) bool {
	return strings.HasSuffix(path, CompressedExt)
}

// decodingReader wraps an open record file, decompressing it if needed.
type decodingReader struct {
	io.Reader
	file afero.File
	dec  *zstd.Decoder
}

func newDecodingReader(f afero.File, path string) (*decodingReader, error) {
	if !isCompressed(path) {
		return &decodingReader{Reader: f, file: f}, nil
	}
	dec, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return &decodingReader{Reader: dec, file: f, dec: dec}, nil
}

func (r *decodingReader) Close() error {
	if r.dec != nil {
		r.dec.Close()
	}
	return r.file.Close()
}

// nopWriteCloser passes writes straight through.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// newFrameWriter returns a writer whose Close ends the data written so far.
// For compressed files each call produces one complete zstd frame, so repeated
// appends leave a valid multi-frame stream.
func newFrameWriter(w io.Writer, path string) (io.WriteCloser, error) {
	if !isCompressed(path) {
		return nopWriteCloser{w}, nil
	}
	enc, err := zstd.NewWriter(w,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	return enc, nil
}
