// Package codec sniffs a byte stream's compression format from its magic
// number and opens the matching decompressor, the same dispatch-by-magic
// shape the StuffIt archive reader used to pick an unpacking algorithm,
// generalized here to whichever compressed container cmd/zstdcat is asked
// to cat through.
package codec

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/therootcompany/xz"

	"github.com/facebook/zstd-sub003"
)

func newZstdReader(r io.Reader) (io.Reader, error) {
	return zstd.NewReader(r, nil), nil
}

// Format identifies a recognized compressed container.
type Format int

const (
	Unknown Format = iota
	Zstandard
	Gzip
	RawDeflate
	Snappy
	XZ
)

func (f Format) String() string {
	switch f {
	case Zstandard:
		return "zstd"
	case Gzip:
		return "gzip"
	case RawDeflate:
		return "deflate"
	case Snappy:
		return "snappy"
	case XZ:
		return "xz"
	default:
		return "unknown"
	}
}

var magics = []struct {
	format Format
	magic  []byte
}{
	{Zstandard, []byte{0x28, 0xB5, 0x2F, 0xFD}},
	{Gzip, []byte{0x1F, 0x8B}},
	{XZ, []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}},
	{Snappy, []byte{0xFF, 0x06, 0x00, 0x00}}, // snappy framed stream identifier chunk
}

// Sniff inspects the leading bytes of a stream and reports the format they
// identify. It returns Unknown, not an error, when nothing matches: the
// caller decides whether to fall back to RawDeflate or reject the input.
func Sniff(lookahead []byte) Format {
	for _, m := range magics {
		if bytes.HasPrefix(lookahead, m.magic) {
			return m.format
		}
	}
	return Unknown
}

// Open returns a reader over r's decompressed content, dispatching on the
// format Sniff would report for r's leading bytes. format may also be
// passed explicitly (e.g. RawDeflate, which has no magic number of its
// own) to bypass sniffing.
func Open(r io.Reader, format Format) (io.Reader, error) {
	switch format {
	case Zstandard:
		return newZstdReader(r)
	case Gzip:
		return gzip.NewReader(r)
	case RawDeflate:
		return flate.NewReader(r), nil
	case Snappy:
		return snappy.NewReader(r), nil
	case XZ:
		return xz.NewReader(r, 0)
	default:
		return nil, fmt.Errorf("codec: unrecognized compressed format")
	}
}

// OpenAutodetect peeks at r's leading bytes, decides the format, and opens
// a decompressing reader over the whole stream (including the bytes
// already peeked).
func OpenAutodetect(r io.Reader) (io.Reader, Format, error) {
	var peek [6]byte
	n, _ := io.ReadFull(r, peek[:])
	lookahead := peek[:n]
	format := Sniff(lookahead)
	full := io.MultiReader(bytes.NewReader(lookahead), r)
	out, err := Open(full, format)
	return out, format, err
}
