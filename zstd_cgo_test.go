//go:build cgo

package zstd_test

import (
	"bytes"
	"testing"

	datadog "github.com/DataDog/zstd"

	zstd "github.com/facebook/zstd-sub003"
)

// TestRoundTripAgainstDataDogEncoder cross-validates against a second,
// independent encoder (DataDog/zstd, a cgo binding to the reference C
// library) so a bug shared between our decoder and klauspost's encoder
// choices is less likely to go unnoticed.
func TestRoundTripAgainstDataDogEncoder(t *testing.T) {
	cases := [][]byte{
		[]byte("hello from the reference encoder"),
		bytes.Repeat([]byte("rle-friendly-chunk"), 5000),
		make([]byte, 20000), // all zero bytes
	}

	for i, want := range cases {
		compressed, err := datadog.Compress(nil, want)
		if err != nil {
			t.Fatalf("case %d: datadog compress: %v", i, err)
		}
		got, err := zstd.Decompress(nil, compressed)
		if err != nil {
			t.Fatalf("case %d: decompress: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("case %d: round trip mismatch: got %d bytes, want %d bytes", i, len(got), len(want))
		}
	}
}
