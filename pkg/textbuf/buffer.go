// Package textbuf provides the growable text buffer handed out by the
// text-buffer lease factories.
//
// A Buffer is a single-owner byte buffer: Reset truncates the contents but
// keeps the backing array, so a buffer that cycles through a pool stops
// allocating once it has grown to its working size.
package textbuf

import (
	"io"
	"unicode/utf8"
)

// Buffer is a growable text buffer. The zero value is an empty buffer ready
// to use. A Buffer must not be copied after first use.
type Buffer struct {
	buf []byte
}

// New creates a buffer with the given initial capacity.
func New(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer{
		buf: make([]byte, 0, capacity),
	}
}

// WriteString appends a string to the buffer.
func (b *Buffer) WriteString(s string) (int, error) {
	b.buf = append(b.buf, s...)
	return len(s), nil
}

// WriteByte appends a single byte.
func (b *Buffer) WriteByte(c byte) error {
	b.buf = append(b.buf, c)
	return nil
}

// WriteRune appends the UTF-8 encoding of r.
func (b *Buffer) WriteRune(r rune) (int, error) {
	n := len(b.buf)
	b.buf = utf8.AppendRune(b.buf, r)
	return len(b.buf) - n, nil
}

// Write implements io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// WriteTo implements io.WriterTo. The buffer is left unchanged.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.buf)
	return int64(n), err
}

// String returns a copy of the contents. The copy stays valid after the
// buffer is reset and handed to another lease.
func (b *Buffer) String() string {
	return string(b.buf)
}

// Bytes returns the underlying byte slice. It aliases the buffer and is only
// valid until the next write or reset.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

// Len returns the number of bytes written.
func (b *Buffer) Len() int {
	return len(b.buf)
}

// Cap returns the capacity of the underlying array.
func (b *Buffer) Cap() int {
	return cap(b.buf)
}

// Reset truncates the buffer to zero length, keeping its storage.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
}

// Truncate discards all but the first n bytes.
func (b *Buffer) Truncate(n int) {
	if n < 0 || n > len(b.buf) {
		panic("textbuf: truncation out of range")
	}
	b.buf = b.buf[:n]
}

// Grow guarantees space for another n bytes without reallocation.
func (b *Buffer) Grow(n int) {
	if n < 0 {
		panic("textbuf: negative grow count")
	}
	if cap(b.buf)-len(b.buf) < n {
		newSize := len(b.buf) + 2*cap(b.buf) + n
		newBuf := make([]byte, len(b.buf), newSize)
		copy(newBuf, b.buf)
		b.buf = newBuf
	}
}

// EnsureCapacity grows the backing array so that Cap() >= capacity. Existing
// contents are preserved. Unlike Grow it allocates exactly the requested
// capacity, so pooled buffers stay inside their tier.
func (b *Buffer) EnsureCapacity(capacity int) {
	if cap(b.buf) >= capacity {
		return
	}
	newBuf := make([]byte, len(b.buf), capacity)
	copy(newBuf, b.buf)
	b.buf = newBuf
}
