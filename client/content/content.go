package content

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"
)

// Kind identifies the storage backing a Content.
type Kind uint8

const (
	Memory Kind = iota
	File
)

func (k Kind) String() string {
	switch k {
	case Memory:
		return "memory"
	case File:
		return "file"
	default:
		return "unknown"
	}
}

// backing is implemented only by memoryBacking and fileBacking.
type backing interface {
	kind() Kind
	size() int64
	open() (io.ReadCloser, error)
	erase()
}

type memoryBacking struct {
	buf []byte
}

func (m memoryBacking) kind() Kind  { return Memory }
func (m memoryBacking) size() int64 { return int64(len(m.buf)) }

func (m memoryBacking) open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m.buf)), nil
}

// erase zeroes the buffer in place so the bytes don't linger in reclaimed memory.
func (m memoryBacking) erase() {
	clear(m.buf)
}

type fileBacking struct {
	path string
}

func (f fileBacking) kind() Kind { return File }

// size treats a missing or unreadable file as zero length.
func (f fileBacking) size() int64 {
	fi, err := os.Stat(f.path)
	if err != nil {
		return 0
	}

	return fi.Size()
}

func (f fileBacking) open() (io.ReadCloser, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, ioError("open", f.path, err)
	}

	return &bufferedFile{Reader: bufio.NewReaderSize(file, ChunkSize), file: file}, nil
}

func (f fileBacking) erase() {
	_ = os.Remove(f.path)
}

// bufferedFile reads a file through a bufio.Reader and closes the file.
type bufferedFile struct {
	*bufio.Reader
	file *os.File
}

func (b *bufferedFile) Close() error {
	return b.file.Close()
}

// Content is a byte payload held in memory or in a file. It is immutable
// once constructed. The zero value, a nil *Content and Empty() all
// represent empty content.
type Content struct {
	b backing
}

var empty = &Content{}

// Empty returns the shared zero-length Content. It holds neither a buffer nor a file.
func Empty() *Content {
	return empty
}

// FromBytes wraps buf without copying it. The Content owns buf from here
// on: Delete zeroes it.
func FromBytes(buf []byte) *Content {
	return &Content{b: memoryBacking{buf: buf}}
}

// FromFile wraps an existing file. No I/O happens until the content is read.
func FromFile(path string) *Content {
	return &Content{b: fileBacking{path: path}}
}

// Kind reports the backing storage. Empty content reports Memory.
func (c *Content) Kind() Kind {
	if c == nil || c.b == nil {
		return Memory
	}

	return c.b.kind()
}

// Path returns the backing file path, or "" for memory-backed content.
func (c *Content) Path() string {
	if c == nil {
		return ""
	}
	if fb, ok := c.b.(fileBacking); ok {
		return fb.path
	}

	return ""
}

// Size returns the payload length in bytes.
func (c *Content) Size() int64 {
	if c == nil || c.b == nil {
		return 0
	}

	return c.b.size()
}

// IsEmpty reports whether the content has no bytes, including a file
// backing that is absent or zero-length.
func (c *Content) IsEmpty() bool {
	if c == nil || c == empty || c.b == nil {
		return true
	}

	return c.b.size() <= 0
}

// Open returns a reader over the payload. Empty content yields a reader
// that is immediately at io.EOF. The caller must close the reader.
func (c *Content) Open() (io.ReadCloser, error) {
	if c.IsEmpty() {
		return io.NopCloser(strings.NewReader("")), nil
	}

	return c.b.open()
}

// WriteTo copies the payload to w. It is a no-op for empty content.
func (c *Content) WriteTo(w io.Writer) (int64, error) {
	if c.IsEmpty() {
		return 0, nil
	}

	rc, err := c.b.open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	return Transfer(w, rc)
}

// Delete scrubs memory-backed content and removes the backing file of
// file-backed content. It is best-effort and never fails.
func (c *Content) Delete() {
	if c == nil || c.b == nil {
		return
	}

	c.b.erase()
}
