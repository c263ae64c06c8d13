// Package daf decodes the NAIF Double-precision Array File container that
// underlies SPK ephemeris and binary PCK orientation kernels.
//
// A DAF is a chain of 1024-byte records: one file record describing the
// geometry, a doubly linked chain of summary records (each paired with a
// name record), and element records holding segment payloads. Both byte
// orders are supported; every numeric access goes through an endian-aware
// reader that never assumes the underlying bytes are aligned, so kernels can
// be served from a read-only memory mapping as-is.
package daf

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/exp/mmap"
)

// ByteSource is random access to the raw kernel bytes. Sources are
// read-only and safe for concurrent ReadAt.
type ByteSource interface {
	io.ReaderAt
	// Size returns the total byte length.
	Size() int64
	// Close releases the source. Views handed out by a DAF are invalid
	// after Close.
	Close() error
}

// heapSource serves a kernel from an in-memory buffer.
type heapSource struct {
	data []byte
}

// NewHeapSource wraps an in-memory kernel image. The buffer must not be
// mutated afterwards.
func NewHeapSource(data []byte) ByteSource { return &heapSource{data: data} }

func (h *heapSource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(h.data)) {
		return 0, io.EOF
	}
	n := copy(p, h.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (h *heapSource) Size() int64 { return int64(len(h.data)) }
func (h *heapSource) Close() error {
	h.data = nil
	return nil
}

// mmapSource serves a kernel from a read-only memory mapping.
type mmapSource struct {
	r *mmap.ReaderAt
}

// OpenMapped memory-maps the file at path read-only. This is the preferred
// source for large kernels: no copy, page cache backed.
func OpenMapped(path string) (ByteSource, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mapping %s: %w", path, err)
	}
	return &mmapSource{r: r}, nil
}

func (m *mmapSource) ReadAt(p []byte, off int64) (int, error) { return m.r.ReadAt(p, off) }
func (m *mmapSource) Size() int64                             { return int64(m.r.Len()) }
func (m *mmapSource) Close() error                            { return m.r.Close() }

// OpenHeap reads the whole file into memory. Fallback for platforms where
// mapping is unavailable or undesirable.
func OpenHeap(path string) (ByteSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return NewHeapSource(data), nil
}
