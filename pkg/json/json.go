// Package json encodes values with goccy/go-json into leased text buffers, so
// hot paths reuse encoding storage instead of allocating a buffer per call.
package json

import (
	"io"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/leasepool/pkg/pool"
	"github.com/ajitpratap0/leasepool/pkg/textbuf"
)

// Marshal encodes v into a buffer leased from f and returns a copy of the
// encoding. A nil factory uses pool.DefaultTextBuffers.
func Marshal(f *pool.Factory[textbuf.Buffer], v interface{}) ([]byte, error) {
	var out []byte
	err := encode(f, v, func(buf *textbuf.Buffer) error {
		out = make([]byte, buf.Len())
		copy(out, buf.Bytes())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarshalString is like Marshal but returns a string.
func MarshalString(f *pool.Factory[textbuf.Buffer], v interface{}) (string, error) {
	var out string
	err := encode(f, v, func(buf *textbuf.Buffer) error {
		out = buf.String()
		return nil
	})
	return out, err
}

// MarshalTo encodes v into a leased buffer and writes it to w followed by a
// newline.
func MarshalTo(w io.Writer, f *pool.Factory[textbuf.Buffer], v interface{}) error {
	return encode(f, v, func(buf *textbuf.Buffer) error {
		if err := buf.WriteByte('\n'); err != nil {
			return err
		}
		_, err := buf.WriteTo(w)
		return err
	})
}

// Unmarshal is a drop-in replacement for encoding/json.Unmarshal.
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

func encode(f *pool.Factory[textbuf.Buffer], v interface{}, use func(buf *textbuf.Buffer) error) error {
	if f == nil {
		f = pool.DefaultTextBuffers()
	}
	return pool.WithDefault(f, func(buf *textbuf.Buffer) error {
		enc := gojson.NewEncoder(buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return err
		}
		// Encode terminates every value with a newline
		if n := buf.Len(); n > 0 && buf.Bytes()[n-1] == '\n' {
			buf.Truncate(n - 1)
		}
		return use(buf)
	})
}
