package codec

import (
	"bytes"
	"compress/gzip"
	"io"
	"testing"

	"github.com/golang/snappy"
)

func TestSniffZstandard(t *testing.T) {
	magic := []byte{0x28, 0xB5, 0x2F, 0xFD, 0x20, 0x00, 0x01, 0x00, 0x00, 0x41}
	if got := Sniff(magic); got != Zstandard {
		t.Fatalf("Sniff = %v, want Zstandard", got)
	}
}

func TestSniffUnknown(t *testing.T) {
	if got := Sniff([]byte("not compressed")); got != Unknown {
		t.Fatalf("Sniff = %v, want Unknown", got)
	}
}

func TestOpenAutodetectGzip(t *testing.T) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	want := []byte("hello from gzip")
	if _, err := w.Write(want); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, format, err := OpenAutodetect(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if format != Gzip {
		t.Fatalf("format = %v, want Gzip", format)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestOpenAutodetectSnappy(t *testing.T) {
	var buf bytes.Buffer
	w := snappy.NewBufferedWriter(&buf)
	want := bytes.Repeat([]byte("snappy data "), 100)
	if _, err := w.Write(want); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, format, err := OpenAutodetect(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if format != Snappy {
		t.Fatalf("format = %v, want Snappy", format)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatal("snappy round trip mismatch")
	}
}
