package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// compressedFile closes the compressor before the file.
type compressedFile struct {
	io.WriteCloser
	file *os.File
}

func (c *compressedFile) Close() error {
	if err := c.WriteCloser.Close(); err != nil {
		_ = c.file.Close()
		return err
	}
	return c.file.Close()
}

// Create creates path, compressing with gzip when it ends in ".gz" and with
// zstd when it ends in ".zst".
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		return &compressedFile{WriteCloser: gzip.NewWriter(f), file: f}, nil
	case strings.HasSuffix(path, ".zst"):
		enc, err := zstd.NewWriter(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		return &compressedFile{WriteCloser: enc, file: f}, nil
	}
	return f, nil
}

// Open opens path for reading, decompressing by suffix like Create.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		r, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to read gzip stream: %w", err)
		}
		return readCloser{Reader: r, close: func() error { _ = r.Close(); return f.Close() }}, nil
	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to read zstd stream: %w", err)
		}
		return readCloser{Reader: dec, close: func() error { dec.Close(); return f.Close() }}, nil
	}
	return f, nil
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r readCloser) Close() error {
	return r.close()
}
