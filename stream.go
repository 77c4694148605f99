package zstd

import (
	"bytes"
	"io"
)

// Reader adapts a Decoder to the io.Reader interface for callers (such as
// internal/codec's format-agnostic dispatch) that want a drop-in
// replacement for compress/gzip-style streaming decompression. Because the
// frame layer has no resumable cursor, the whole input is decoded eagerly
// on the first Read.
type Reader struct {
	dec      *Decoder
	src      io.Reader
	buf      bytes.Reader
	prepared bool
}

// NewReader returns a Reader that decodes r with dec's configuration. A
// nil dec is equivalent to NewDecoder().
func NewReader(r io.Reader, dec *Decoder) *Reader {
	if dec == nil {
		dec = NewDecoder()
	}
	return &Reader{dec: dec, src: r}
}

func (z *Reader) Read(p []byte) (int, error) {
	if !z.prepared {
		raw, err := io.ReadAll(z.src)
		if err != nil {
			return 0, err
		}
		out, err := z.dec.decompressAppend(nil, raw)
		if err != nil {
			return 0, err
		}
		z.buf = *bytes.NewReader(out)
		z.prepared = true
	}
	return z.buf.Read(p)
}
